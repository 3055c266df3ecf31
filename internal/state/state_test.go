package state

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"tour-admin-server/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduceAuth_TwoPhaseLogin(t *testing.T) {
	user := &domain.User{ID: "u1", Email: "ana@example.com"}

	s := ReduceAuth(Anonymous{}, PasswordVerified{Token: "abc", User: user})
	v := View(s)
	assert.False(t, v.IsAuthenticated)
	require.NotNil(t, v.PendingToken)
	assert.Equal(t, "abc", *v.PendingToken)
	assert.Equal(t, user, v.PendingUser)
	assert.True(t, v.RequiresOTP)
	assert.Nil(t, v.Token)
	assert.Nil(t, v.User)

	s = ReduceAuth(s, OTPVerified{})
	v = View(s)
	assert.True(t, v.IsAuthenticated)
	require.NotNil(t, v.Token)
	assert.Equal(t, "abc", *v.Token)
	assert.Equal(t, user, v.User)
	assert.Nil(t, v.PendingToken)
	assert.Nil(t, v.PendingUser)
	assert.False(t, v.RequiresOTP)
}

func TestReduceAuth_Transitions(t *testing.T) {
	user := &domain.User{ID: "u1"}
	other := &domain.User{ID: "u2"}

	tests := []struct {
		name   string
		from   AuthState
		action Action
		want   AuthState
	}{
		{"otp without pending is ignored", Anonymous{}, OTPVerified{Token: "x"}, Anonymous{}},
		{"otp on authenticated is ignored", Authenticated{Token: "t", User: user}, OTPVerified{Token: "x"}, Authenticated{Token: "t", User: user}},
		{"otp with fresh token", PendingOTP{Token: "p", User: user}, OTPVerified{Token: "fresh", User: other}, Authenticated{Token: "fresh", User: other}},
		{"password step without token", Anonymous{}, PasswordVerified{}, Anonymous{}},
		{"logout from pending", PendingOTP{Token: "p"}, LoggedOut{}, Anonymous{}},
		{"logout from authenticated", Authenticated{Token: "t"}, LoggedOut{}, Anonymous{}},
		{"restore keeps known user", Authenticated{Token: "t", User: user}, SessionRestored{Token: "t"}, Authenticated{Token: "t", User: user}},
		{"restore empty token", Authenticated{Token: "t"}, SessionRestored{}, Anonymous{}},
		{"nil state", nil, LanguageChanged{Language: "en"}, Anonymous{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReduceAuth(tt.from, tt.action))
		})
	}
}

func TestReduce_UISlice(t *testing.T) {
	s := InitialState("es")

	s = Reduce(s, LoadingStarted{})
	s = Reduce(s, LoadingStarted{})
	s = Reduce(s, LoadingFinished{})
	assert.Equal(t, 1, s.UI.Loading)

	s = Reduce(s, LoadingFinished{})
	s = Reduce(s, LoadingFinished{})
	assert.Equal(t, 0, s.UI.Loading, "counter never goes negative")

	s = Reduce(s, ModalOpened{Modal: Modal{Name: "confirmDelete", Props: map[string]interface{}{"id": "t1"}}})
	require.NotNil(t, s.UI.Modal)
	assert.Equal(t, "confirmDelete", s.UI.Modal.Name)

	s = Reduce(s, LanguageChanged{Language: "en"})
	s = Reduce(s, LanguageChanged{})
	assert.Equal(t, "en", s.UI.Language)

	s = Reduce(s, LoggedOut{})
	assert.Nil(t, s.UI.Modal)
}

func TestReduce_ReferenceSlice(t *testing.T) {
	mx := domain.Country{ID: "mx", Code: "MX"}
	s := Reduce(InitialState("es"), ReferenceLoaded{Countries: []domain.Country{mx}, Selected: mx})

	require.NotNil(t, s.Reference.SelectedCountry)
	assert.Equal(t, "MX", s.Reference.SelectedCountry.Code)
	assert.NotNil(t, s.Reference.Cities)

	co := domain.Country{ID: "co", Code: "CO"}
	s = Reduce(s, CountrySelected{Country: co, Cities: []domain.City{{ID: "bog"}}})
	assert.Equal(t, "CO", s.Reference.SelectedCountry.Code)
	assert.Len(t, s.Reference.Cities, 1)
	assert.Len(t, s.Reference.Countries, 1)
}

func TestAppState_MarshalJSON(t *testing.T) {
	s := Reduce(InitialState("es"), PasswordVerified{Token: "abc"})

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var out struct {
		Auth map[string]interface{} `json:"auth"`
		UI   UIState                `json:"ui"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, false, out.Auth["isAuthenticated"])
	assert.Equal(t, "abc", out.Auth["pendingToken"])
	assert.Nil(t, out.Auth["token"])
	assert.Equal(t, "es", out.UI.Language)
}

func TestStore_SubscribeAndUnsubscribe(t *testing.T) {
	store := NewStore[int, int](0, func(s, a int) int { return s + a })

	var seen []int
	unsubscribe := store.Subscribe(func(s int) { seen = append(seen, s) })

	store.Dispatch(2)
	store.Dispatch(3)
	unsubscribe()
	store.Dispatch(4)

	assert.Equal(t, []int{2, 5}, seen)
	assert.Equal(t, 9, store.State())
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	store := NewStore[int, int](0, func(s, a int) int { return s + a })

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Dispatch(1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, store.State())
}

func TestRegistry(t *testing.T) {
	var mu sync.Mutex
	notified := map[string]int{}
	r := NewRegistry("es", func(sid string, s AppState) {
		mu.Lock()
		notified[sid]++
		mu.Unlock()
	})

	now := time.Now()
	r.now = func() time.Time { return now }

	a := r.Get("a")
	assert.Same(t, a, r.Get("a"))

	r.Dispatch("a", LanguageChanged{Language: "en"})
	r.Dispatch("b", LoadingStarted{})
	assert.Equal(t, "en", r.Get("a").State().UI.Language)
	assert.Equal(t, "es", r.Get("b").State().UI.Language)
	assert.Equal(t, map[string]int{"a": 1, "b": 1}, notified)

	now = now.Add(time.Hour)
	r.Get("b")
	assert.Equal(t, 1, r.Sweep(30*time.Minute))
	assert.Equal(t, 1, r.Len())

	r.Remove("b")
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_LimitEvictsLeastRecentlyUsed(t *testing.T) {
	r := NewRegistry("es", nil)
	r.SetLimit(2)

	now := time.Now()
	r.now = func() time.Time { return now }

	r.Get("a")
	now = now.Add(time.Second)
	r.Get("b")
	now = now.Add(time.Second)
	r.Get("a")
	now = now.Add(time.Second)
	r.Get("c")

	assert.Equal(t, 2, r.Len())
	_, ok := r.Lookup("b")
	assert.False(t, ok, "b was the least recently used")
	_, ok = r.Lookup("a")
	assert.True(t, ok)
}

func TestRegistry_DetachedAndLookupDoNotGrow(t *testing.T) {
	r := NewRegistry("en", nil)

	for i := 0; i < 10; i++ {
		store := r.Detached()
		store.Dispatch(LoadingStarted{})
		assert.Equal(t, "en", store.State().UI.Language)
	}
	_, ok := r.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}
