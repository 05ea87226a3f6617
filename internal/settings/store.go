package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/muezzin/muezzin/internal/schedule"
)

// Keys used in the backing key-value store.
const (
	KeySettings    = "settings"
	KeyLatitude    = "latitude"
	KeyLongitude   = "longitude"
	KeyTimezone    = "timezone"
	KeyCustomTimes = "customTimes"
	KeyJumuahTime  = "jumuahTime"
	KeyFirst       = "first"
	// keyJobPrefix prefixes the last run time of a background job.
	keyJobPrefix = "job:"
)

// DefaultOpTimeout bounds every backend operation.
const DefaultOpTimeout = 5 * time.Second

// StorageError wraps an I/O failure of the backing store.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// KV is a string key-value backend.
type KV interface {
	// Get returns ok=false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores several keys in one transaction where the backend allows it.
	Set(ctx context.Context, pairs map[string]string) error
	Close() error
}

// Store is the typed view of the settings consumed by the daemon.
type Store interface {
	Settings() (AppSettings, error)
	SaveSettings(AppSettings) error
	Location() (Location, error)
	SaveLocation(Location) error
	CustomTimes() (*schedule.CustomTimes, error)
	SaveCustomTimes(schedule.CustomTimes) error
	JumuahTime() (*schedule.JumuahTime, error)
	SaveJumuahTime(schedule.JumuahTime) error
	IsFirstRun() (bool, error)
	MarkFirstRunDone() error
	JobLastRun(id string) (time.Time, error)
	SaveJobLastRun(id string, at time.Time) error
	Close() error
}

// KVStore implements Store as JSON values in a KV.
type KVStore struct {
	kv      KV
	timeout time.Duration
}

var _ Store = (*KVStore)(nil)

// NewStore wraps kv.
func NewStore(kv KV) *KVStore {
	return &KVStore{kv: kv, timeout: DefaultOpTimeout}
}

func (s *KVStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// load decodes key into v. Absent or undecodable values leave v untouched.
func (s *KVStore) load(key string, v any) (bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return false, &StorageError{Op: "get", Key: key, Err: err}
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, nil
	}
	return true, nil
}

func (s *KVStore) save(values map[string]any) error {
	pairs := make(map[string]string, len(values))
	for k, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			return &StorageError{Op: "encode", Key: k, Err: err}
		}
		pairs[k] = string(b)
	}
	ctx, cancel := s.ctx()
	defer cancel()
	if err := s.kv.Set(ctx, pairs); err != nil {
		key := ""
		for k := range pairs {
			key = k
			break
		}
		return &StorageError{Op: "set", Key: key, Err: err}
	}
	return nil
}

func (s *KVStore) Settings() (AppSettings, error) {
	stored := Default()
	ok, err := s.load(KeySettings, &stored)
	if err != nil || !ok {
		return Default(), err
	}
	return stored, nil
}

func (s *KVStore) SaveSettings(v AppSettings) error {
	return s.save(map[string]any{KeySettings: v})
}

func (s *KVStore) Location() (Location, error) {
	loc := DefaultLocation()
	var lat, lon float64
	var tz string
	if ok, err := s.load(KeyLatitude, &lat); err != nil {
		return loc, err
	} else if ok {
		loc.Latitude = lat
	}
	if ok, err := s.load(KeyLongitude, &lon); err != nil {
		return loc, err
	} else if ok {
		loc.Longitude = lon
	}
	if ok, err := s.load(KeyTimezone, &tz); err != nil {
		return loc, err
	} else if ok && tz != "" {
		loc.Timezone = tz
	}
	return loc, nil
}

func (s *KVStore) SaveLocation(l Location) error {
	return s.save(map[string]any{
		KeyLatitude:  l.Latitude,
		KeyLongitude: l.Longitude,
		KeyTimezone:  l.Timezone,
	})
}

func (s *KVStore) CustomTimes() (*schedule.CustomTimes, error) {
	var ct schedule.CustomTimes
	ok, err := s.load(KeyCustomTimes, &ct)
	if err != nil || !ok {
		return nil, err
	}
	return &ct, nil
}

func (s *KVStore) SaveCustomTimes(ct schedule.CustomTimes) error {
	return s.save(map[string]any{KeyCustomTimes: ct})
}

func (s *KVStore) JumuahTime() (*schedule.JumuahTime, error) {
	var jt schedule.JumuahTime
	ok, err := s.load(KeyJumuahTime, &jt)
	if err != nil || !ok {
		return nil, err
	}
	return &jt, nil
}

func (s *KVStore) SaveJumuahTime(jt schedule.JumuahTime) error {
	return s.save(map[string]any{KeyJumuahTime: jt})
}

func (s *KVStore) IsFirstRun() (bool, error) {
	ctx, cancel := s.ctx()
	defer cancel()
	_, ok, err := s.kv.Get(ctx, KeyFirst)
	if err != nil {
		return false, &StorageError{Op: "get", Key: KeyFirst, Err: err}
	}
	return !ok, nil
}

func (s *KVStore) MarkFirstRunDone() error {
	return s.save(map[string]any{KeyFirst: true})
}

// JobLastRun returns the zero time when the job never ran.
func (s *KVStore) JobLastRun(id string) (time.Time, error) {
	var at time.Time
	if _, err := s.load(keyJobPrefix+id, &at); err != nil {
		return time.Time{}, err
	}
	return at, nil
}

func (s *KVStore) SaveJobLastRun(id string, at time.Time) error {
	return s.save(map[string]any{keyJobPrefix + id: at})
}

func (s *KVStore) Close() error {
	if err := s.kv.Close(); err != nil && !errors.Is(err, ErrClosed) {
		return err
	}
	return nil
}
