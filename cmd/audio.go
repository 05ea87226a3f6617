package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli"

	"github.com/muezzin/muezzin/cmd/common"
	apicommon "github.com/muezzin/muezzin/common"
)

func play(ctx *cli.Context) error {
	return withClient(ctx, "play", func(c context.Context, client *rpcClient) error {
		return client.Call(c, apicommon.MethodAudioPlay, apicommon.PlayParams{Path: ctx.Args().First()}, nil)
	})
}

func stop(ctx *cli.Context) error {
	return withClient(ctx, "stop", func(c context.Context, client *rpcClient) error {
		return client.Call(c, apicommon.MethodAudioStop, nil, nil)
	})
}

func pause(ctx *cli.Context) error {
	return withClient(ctx, "pause", func(c context.Context, client *rpcClient) error {
		return client.Call(c, apicommon.MethodAudioPause, nil, nil)
	})
}

func resume(ctx *cli.Context) error {
	return withClient(ctx, "resume", func(c context.Context, client *rpcClient) error {
		return client.Call(c, apicommon.MethodAudioResume, nil, nil)
	})
}

func volume(ctx *cli.Context) error {
	v, err := strconv.ParseFloat(ctx.Args().First(), 64)
	if err != nil || v < 0 || v > 1 {
		return common.PrintErrWithCmdHelp(ctx, errors.New("volume must be a number between 0 and 1"))
	}
	return withClient(ctx, "volume", func(c context.Context, client *rpcClient) error {
		return client.Call(c, apicommon.MethodAudioSetVolume, apicommon.VolumeParams{Volume: v}, nil)
	})
}

func audioStatus(ctx *cli.Context) error {
	return withClient(ctx, "status", func(c context.Context, client *rpcClient) error {
		var st apicommon.AudioStatusResponse
		if err := client.Call(c, apicommon.MethodAudioStatus, nil, &st); err != nil {
			return err
		}
		state := "stopped"
		switch {
		case st.Paused:
			state = "paused"
		case st.Playing:
			state = "playing"
		}
		fmt.Printf("Audio: %s, volume %.0f%%", state, st.Volume*100)
		if st.Path != "" {
			fmt.Printf(", %s", st.Path)
		}
		fmt.Println()
		return nil
	})
}
