package server

import (
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/creachadair/jrpc2/handler"

	"github.com/muezzin/muezzin/common"
	"github.com/muezzin/muezzin/internal/schedule"
	"github.com/muezzin/muezzin/pkg/logger"
)

// newPipeServer starts a push-enabled jrpc2 server over an in-memory pipe.
// The client channel must be drained or closed, otherwise pushes block.
func newPipeServer(t *testing.T) (channel.Channel, *jrpc2.Server, func()) {
	t.Helper()
	cr, sw := io.Pipe()
	sr, cw := io.Pipe()
	cli := channel.Line(cr, cw)

	srv := jrpc2.NewServer(handler.Map{}, &jrpc2.ServerOptions{AllowPush: true})
	srv.Start(channel.Line(sr, sw))

	cleanup := func() {
		cli.Close()
		_ = srv.Wait()
	}
	return cli, srv, cleanup
}

func TestRPCNotifier_RegisterUnregister(t *testing.T) {
	n := NewRPCNotifier(nil)
	_, srv, cleanup := newPipeServer(t)
	defer cleanup()

	n.Register(srv)
	n.Register(srv)
	if n.Count() != 1 {
		t.Fatalf("expected 1 server after double register, got %d", n.Count())
	}
	n.Unregister(srv)
	n.Unregister(srv)
	if n.Count() != 0 {
		t.Fatalf("expected 0 servers, got %d", n.Count())
	}
}

func TestRPCNotifier_Broadcast_NoServers(t *testing.T) {
	n := NewRPCNotifier(nil)
	n.Push(common.PushPrayersUpdated, &common.PrayersUpdatedNotification{ID: "x", Date: "2024-03-14"})
}

func TestRPCNotifier_Push(t *testing.T) {
	n := NewRPCNotifier(nil)
	cli, srv, cleanup := newPipeServer(t)
	defer cleanup()
	n.Register(srv)

	at := time.Date(2024, 3, 14, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		method common.PushMethod
		params any
	}{
		{common.PushPrayersUpdated, &common.PrayersUpdatedNotification{ID: "1", Date: "2024-03-14"}},
		{common.PushPrayerArrived, &common.PrayerArrivedNotification{ID: "2", Prayer: schedule.Dhuhr, Time: at}},
		{common.PushPrayerReminder, &common.PrayerReminderNotification{ID: "3", Prayer: schedule.Asr, Time: at, MinutesUntil: 10}},
		{common.PushNotificationShow, &common.NotificationShowNotification{ID: "4", Title: "Prayer Time", Body: "It's time"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.method), func(t *testing.T) {
			done := make(chan []byte, 1)
			go func() {
				data, _ := cli.Recv()
				done <- data
			}()

			n.Push(tt.method, tt.params)

			var msg struct {
				Method string `json:"method"`
			}
			if err := json.Unmarshal(<-done, &msg); err != nil {
				t.Fatalf("decode push: %v", err)
			}
			if msg.Method != string(tt.method) {
				t.Fatalf("expected method %s, got %s", tt.method, msg.Method)
			}
		})
	}
	if n.Count() != 1 {
		t.Fatalf("expected 1 server after successful pushes, got %d", n.Count())
	}
}

func TestRPCNotifier_Broadcast_PartialFailure(t *testing.T) {
	ml := logger.NewMockLogger()
	n := NewRPCNotifier(ml)

	cli1, srv1, cleanup1 := newPipeServer(t)
	defer cleanup1()
	cli2, srv2, _ := newPipeServer(t)

	n.Register(srv1)
	n.Register(srv2)

	cli2.Close()
	_ = srv2.Wait()

	done := make(chan struct{}, 1)
	go func() { _, _ = cli1.Recv(); done <- struct{}{} }()

	n.Push(common.PushPrayerArrived, &common.PrayerArrivedNotification{ID: "1", Prayer: schedule.Fajr})
	<-done

	if n.Count() != 1 {
		t.Fatalf("expected 1 server after partial failure, got %d", n.Count())
	}
	if len(ml.Warnings()) != 1 {
		t.Fatalf("expected 1 warning, got %v", ml.Warnings())
	}
}

func TestRPCNotifier_Close(t *testing.T) {
	n := NewRPCNotifier(nil)
	_, srv, cleanup := newPipeServer(t)
	defer cleanup()
	n.Register(srv)

	n.Close()
	if n.Count() != 0 {
		t.Fatalf("expected 0 servers after Close, got %d", n.Count())
	}
	done := make(chan struct{})
	go func() { _ = srv.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("server still running after Close")
	}
}

func TestRPCNotifier_ConcurrentRegisterUnregister(t *testing.T) {
	n := NewRPCNotifier(nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cli, srv, _ := newPipeServer(t)

			n.Register(srv)
			_ = n.Count()
			n.Unregister(srv)

			cli.Close()
			_ = srv.Wait()
		}()
	}
	wg.Wait()

	if n.Count() != 0 {
		t.Fatalf("expected 0 servers, got %d", n.Count())
	}
}
