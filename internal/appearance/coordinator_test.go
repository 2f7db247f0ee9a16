package appearance

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu     sync.Mutex
	value  ThemeSource
	getErr error
	setErr error
	sets   []ThemeSource
}

func (s *fakeStore) Get(_ context.Context) (ThemeSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", s.getErr
	}
	if s.value == "" {
		return SourceSystem, nil
	}
	return s.value, nil
}

func (s *fakeStore) Set(_ context.Context, src ThemeSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets = append(s.sets, src)
	if s.setErr != nil {
		return s.setErr
	}
	s.value = src
	return nil
}

func (s *fakeStore) setCalls() []ThemeSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ThemeSource, len(s.sets))
	copy(out, s.sets)
	return out
}

// fakeObserver mimics the GTK style manager: forcing light/dark flips the
// effective dark flag synchronously and fires the change callback from
// inside SetFollowMode, which is how the real notify signal behaves.
type fakeObserver struct {
	mu         sync.Mutex
	systemDark bool
	dark       bool
	follow     []ThemeSource
	callbacks  []func(bool)
}

func (o *fakeObserver) PrefersDark() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dark
}

func (o *fakeObserver) SetFollowMode(src ThemeSource) {
	o.mu.Lock()
	o.follow = append(o.follow, src)
	var next bool
	switch src {
	case SourceLight:
		next = false
	case SourceDark:
		next = true
	default:
		next = o.systemDark
	}
	changed := next != o.dark
	o.dark = next
	cbs := append([]func(bool){}, o.callbacks...)
	o.mu.Unlock()

	if changed {
		for _, cb := range cbs {
			cb(next)
		}
	}
}

func (o *fakeObserver) OnChange(fn func(bool)) func() {
	o.mu.Lock()
	idx := len(o.callbacks)
	o.callbacks = append(o.callbacks, fn)
	o.mu.Unlock()
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		if idx < len(o.callbacks) {
			o.callbacks[idx] = func(bool) {}
		}
	}
}

// flipSystem simulates the OS color scheme changing out from under us.
func (o *fakeObserver) flipSystem(dark bool) {
	o.mu.Lock()
	o.systemDark = dark
	changed := dark != o.dark
	o.dark = dark
	cbs := append([]func(bool){}, o.callbacks...)
	o.mu.Unlock()

	if changed {
		for _, cb := range cbs {
			cb(dark)
		}
	}
}

type fakeRecipient struct {
	mu         sync.Mutex
	id         uint64
	err        error
	deliveries []Snapshot
}

func (r *fakeRecipient) ID() uint64 { return r.id }

func (r *fakeRecipient) DeliverAppearance(snap Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, snap)
	return r.err
}

func (r *fakeRecipient) received() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Snapshot, len(r.deliveries))
	copy(out, r.deliveries)
	return out
}

func (r *fakeRecipient) last() Snapshot {
	got := r.received()
	if len(got) == 0 {
		return Snapshot{}
	}
	return got[len(got)-1]
}

type fakeRegistry struct {
	mu   sync.Mutex
	list []Recipient
}

func (f *fakeRegistry) Recipients() []Recipient {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Recipient, len(f.list))
	copy(out, f.list)
	return out
}

func (f *fakeRegistry) add(r Recipient) {
	f.mu.Lock()
	f.list = append(f.list, r)
	f.mu.Unlock()
}

func newTestCoordinator(store *fakeStore, obs *fakeObserver, reg *fakeRegistry) *Coordinator {
	return NewCoordinator(store, obs, reg, zerolog.Nop())
}

func TestInitializeAppliesStoredPreference(t *testing.T) {
	store := &fakeStore{value: SourceDark}
	obs := &fakeObserver{systemDark: false}
	reg := &fakeRegistry{}
	c := newTestCoordinator(store, obs, reg)

	require.NoError(t, c.Initialize(context.Background()))

	snap := c.Snapshot()
	assert.Equal(t, SourceDark, snap.ThemeSource)
	assert.True(t, snap.IsDarkMode)
	assert.Equal(t, []ThemeSource{SourceDark}, obs.follow)
}

func TestInitializeStoreFailureFallsBackToSystem(t *testing.T) {
	store := &fakeStore{getErr: errors.New("disk on fire")}
	obs := &fakeObserver{systemDark: true, dark: true}
	reg := &fakeRegistry{}
	c := newTestCoordinator(store, obs, reg)

	err := c.Initialize(context.Background())
	require.Error(t, err)
	assert.True(t, IsPersistError(err))

	snap := c.Snapshot()
	assert.Equal(t, SourceSystem, snap.ThemeSource)
	assert.True(t, snap.IsDarkMode)
}

func TestSnapshotConsistency(t *testing.T) {
	tests := []struct {
		name       string
		source     ThemeSource
		systemDark bool
		wantDark   bool
	}{
		{"light forces light", SourceLight, true, false},
		{"dark forces dark", SourceDark, false, true},
		{"system mirrors dark os", SourceSystem, true, true},
		{"system mirrors light os", SourceSystem, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{value: tt.source}
			obs := &fakeObserver{systemDark: tt.systemDark, dark: tt.systemDark}
			c := newTestCoordinator(store, obs, &fakeRegistry{})
			require.NoError(t, c.Initialize(context.Background()))

			snap := c.Snapshot()
			assert.Equal(t, tt.source, snap.ThemeSource)
			assert.Equal(t, tt.wantDark, snap.IsDarkMode)
		})
	}
}

func TestSetThemeSourceBroadcastsToAllWindows(t *testing.T) {
	store := &fakeStore{}
	obs := &fakeObserver{}
	reg := &fakeRegistry{}
	w1 := &fakeRecipient{id: 1}
	w2 := &fakeRecipient{id: 2}
	w3 := &fakeRecipient{id: 3}
	reg.add(w1)
	reg.add(w2)
	reg.add(w3)

	c := newTestCoordinator(store, obs, reg)
	require.NoError(t, c.Initialize(context.Background()))

	snap, err := c.SetThemeSource(context.Background(), SourceDark)
	require.NoError(t, err)
	assert.Equal(t, SourceDark, snap.ThemeSource)
	assert.True(t, snap.IsDarkMode)

	for _, w := range []*fakeRecipient{w1, w2, w3} {
		assert.Equal(t, snap, w.last(), "window %d", w.id)
	}
	assert.Equal(t, []ThemeSource{SourceDark}, store.setCalls())
}

func TestSetThemeSourceRepeatStillBroadcasts(t *testing.T) {
	store := &fakeStore{value: SourceDark}
	obs := &fakeObserver{dark: true}
	reg := &fakeRegistry{}
	w := &fakeRecipient{id: 1}
	reg.add(w)

	c := newTestCoordinator(store, obs, reg)
	require.NoError(t, c.Initialize(context.Background()))

	before := len(w.received())
	snap, err := c.SetThemeSource(context.Background(), SourceDark)
	require.NoError(t, err)
	assert.Equal(t, SourceDark, snap.ThemeSource)

	// Repeated set of the current value is an acknowledged no-op that still
	// notifies every window, so a late-joining or desynced window resyncs.
	assert.Equal(t, before+1, len(w.received()))
}

func TestSetThemeSourceInvalidValueHasNoSideEffects(t *testing.T) {
	store := &fakeStore{value: SourceLight}
	obs := &fakeObserver{}
	reg := &fakeRegistry{}
	w := &fakeRecipient{id: 1}
	reg.add(w)

	c := newTestCoordinator(store, obs, reg)
	require.NoError(t, c.Initialize(context.Background()))
	followBefore := len(obs.follow)
	deliveredBefore := len(w.received())

	_, err := c.SetThemeSource(context.Background(), ThemeSource("solarized"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidThemeSource)

	assert.Equal(t, SourceLight, c.Snapshot().ThemeSource)
	assert.Empty(t, store.setCalls())
	assert.Equal(t, followBefore, len(obs.follow))
	assert.Equal(t, deliveredBefore, len(w.received()))
}

func TestSetThemeSourcePersistFailureStillAppliesAndBroadcasts(t *testing.T) {
	store := &fakeStore{setErr: errors.New("database is locked")}
	obs := &fakeObserver{}
	reg := &fakeRegistry{}
	w := &fakeRecipient{id: 1}
	reg.add(w)

	c := newTestCoordinator(store, obs, reg)
	require.NoError(t, c.Initialize(context.Background()))

	snap, err := c.SetThemeSource(context.Background(), SourceDark)
	require.Error(t, err)
	assert.True(t, IsPersistError(err))

	// The session stays consistent even though durability failed.
	assert.Equal(t, SourceDark, snap.ThemeSource)
	assert.True(t, snap.IsDarkMode)
	assert.Equal(t, SourceDark, c.Snapshot().ThemeSource)
	assert.Equal(t, snap, w.last())
}

func TestBroadcastFailureIsolation(t *testing.T) {
	store := &fakeStore{}
	obs := &fakeObserver{}
	reg := &fakeRegistry{}
	healthy1 := &fakeRecipient{id: 1}
	broken := &fakeRecipient{id: 2, err: errors.New("webview destroyed")}
	healthy2 := &fakeRecipient{id: 3}
	reg.add(healthy1)
	reg.add(broken)
	reg.add(healthy2)

	c := newTestCoordinator(store, obs, reg)
	require.NoError(t, c.Initialize(context.Background()))

	snap, err := c.SetThemeSource(context.Background(), SourceDark)
	require.NoError(t, err)

	assert.Equal(t, snap, healthy1.last())
	assert.Equal(t, snap, healthy2.last())
}

func TestSystemChangeUpdatesOnlyInSystemMode(t *testing.T) {
	t.Run("system mode follows os", func(t *testing.T) {
		store := &fakeStore{}
		obs := &fakeObserver{systemDark: false}
		reg := &fakeRegistry{}
		w := &fakeRecipient{id: 1}
		reg.add(w)

		c := newTestCoordinator(store, obs, reg)
		require.NoError(t, c.Initialize(context.Background()))

		obs.flipSystem(true)

		snap := c.Snapshot()
		assert.Equal(t, SourceSystem, snap.ThemeSource)
		assert.True(t, snap.IsDarkMode)
		assert.Equal(t, snap, w.last())
		// OS-driven changes never rewrite the stored preference.
		assert.Empty(t, store.setCalls())
	})

	t.Run("explicit preference pins the mode", func(t *testing.T) {
		store := &fakeStore{value: SourceLight}
		obs := &fakeObserver{systemDark: false}
		reg := &fakeRegistry{}
		c := newTestCoordinator(store, obs, reg)
		require.NoError(t, c.Initialize(context.Background()))

		obs.flipSystem(true)

		// The fake's effective flag follows the OS flip, but the snapshot
		// resolution pins light because the preference is explicit.
		snap := resolveSnapshot(c.currentSource(), true)
		assert.Equal(t, SourceLight, snap.ThemeSource)
		assert.False(t, snap.IsDarkMode)
	})
}

func TestRestartRecoversPersistedPreference(t *testing.T) {
	store := &fakeStore{}
	obs := &fakeObserver{}
	reg := &fakeRegistry{}

	c1 := newTestCoordinator(store, obs, reg)
	require.NoError(t, c1.Initialize(context.Background()))
	_, err := c1.SetThemeSource(context.Background(), SourceDark)
	require.NoError(t, err)
	c1.Close()

	// New process, same store.
	obs2 := &fakeObserver{systemDark: false}
	c2 := newTestCoordinator(store, obs2, &fakeRegistry{})
	require.NoError(t, c2.Initialize(context.Background()))

	snap := c2.Snapshot()
	assert.Equal(t, SourceDark, snap.ThemeSource)
	assert.True(t, snap.IsDarkMode)
}

func TestLateJoiningWindowGetsAuthoritativeSnapshot(t *testing.T) {
	store := &fakeStore{}
	obs := &fakeObserver{}
	reg := &fakeRegistry{}
	c := newTestCoordinator(store, obs, reg)
	require.NoError(t, c.Initialize(context.Background()))

	_, err := c.SetThemeSource(context.Background(), SourceDark)
	require.NoError(t, err)

	// Window opened after the change pulls the snapshot instead of waiting
	// for the next broadcast.
	late := &fakeRecipient{id: 99}
	reg.add(late)
	snap := c.Snapshot()
	assert.Equal(t, SourceDark, snap.ThemeSource)
	assert.True(t, snap.IsDarkMode)

	_, err = c.SetThemeSource(context.Background(), SourceLight)
	require.NoError(t, err)
	assert.Equal(t, SourceLight, late.last().ThemeSource)
	assert.False(t, late.last().IsDarkMode)
}

func TestCloseIsIdempotent(t *testing.T) {
	store := &fakeStore{}
	obs := &fakeObserver{}
	c := newTestCoordinator(store, obs, &fakeRegistry{})
	require.NoError(t, c.Initialize(context.Background()))

	c.Close()
	c.Close()
}

func TestConcurrentSetThemeSourceSerializes(t *testing.T) {
	store := &fakeStore{}
	obs := &fakeObserver{}
	reg := &fakeRegistry{}
	w := &fakeRecipient{id: 1}
	reg.add(w)

	c := newTestCoordinator(store, obs, reg)
	require.NoError(t, c.Initialize(context.Background()))

	var wg sync.WaitGroup
	sources := []ThemeSource{SourceLight, SourceDark, SourceSystem, SourceDark}
	for _, src := range sources {
		wg.Add(1)
		go func(s ThemeSource) {
			defer wg.Done()
			_, err := c.SetThemeSource(context.Background(), s)
			assert.NoError(t, err)
		}(src)
	}
	wg.Wait()

	// Whatever order won, the final snapshot matches the last persisted value.
	final := c.Snapshot()
	calls := store.setCalls()
	require.Len(t, calls, len(sources))
	assert.Equal(t, calls[len(calls)-1], final.ThemeSource)
	assert.Equal(t, final, w.last())
}
