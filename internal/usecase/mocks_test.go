// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/rs/zerolog"

	"telegram-markov-bot/internal/domain"
	"telegram-markov-bot/internal/domain/model"
	"telegram-markov-bot/internal/domain/ports/repository"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memSampleRepo is a small in-memory corpus used by unit tests.
type memSampleRepo struct {
	mu        sync.Mutex
	store     map[int64][]string
	loads     int
	appendErr error
}

var _ repository.SampleRepository = (*memSampleRepo)(nil)

func newMemSampleRepo() *memSampleRepo {
	return &memSampleRepo{store: make(map[int64][]string)}
}

func (m *memSampleRepo) Ensure(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[chatID]; !ok {
		m.store[chatID] = []string{}
	}
	return nil
}

func (m *memSampleRepo) Load(ctx context.Context, chatID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	return append([]string{}, m.store[chatID]...)
}

func (m *memSampleRepo) Append(ctx context.Context, chatID int64, text string) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	line := model.NormalizeSample(text)
	if line == "" {
		return domain.ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[chatID] = append(m.store[chatID], line)
	return nil
}

func (m *memSampleRepo) Clear(ctx context.Context, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[chatID] = []string{}
	return nil
}

func (m *memSampleRepo) Size(ctx context.Context, chatID int64) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.store[chatID] {
		n += int64(len(s)) + 1
	}
	return n
}

func (m *memSampleRepo) loadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loads
}

// memSettingsRepo mimics the self-healing store: unknown chats get defaults.
type memSettingsRepo struct {
	mu      sync.Mutex
	store   map[int64]model.ChatSettings
	saveErr error
}

var _ repository.SettingsRepository = (*memSettingsRepo)(nil)

func newMemSettingsRepo() *memSettingsRepo {
	return &memSettingsRepo{store: make(map[int64]model.ChatSettings)}
}

func (m *memSettingsRepo) Load(ctx context.Context, chatID int64) (model.ChatSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.store[chatID]
	if !ok {
		s = model.DefaultChatSettings()
		m.store[chatID] = s
	}
	return s, nil
}

func (m *memSettingsRepo) Save(ctx context.Context, chatID int64, s model.ChatSettings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store[chatID] = s
	return nil
}

// memStateRepo is a map-backed dialog state store.
type memStateRepo struct {
	mu sync.Mutex
	m  map[model.DialogKey]model.SettingsStep
}

var _ repository.DialogStateRepository = (*memStateRepo)(nil)

func newMemStateRepo() *memStateRepo {
	return &memStateRepo{m: make(map[model.DialogKey]model.SettingsStep)}
}

func (r *memStateRepo) SetState(ctx context.Context, key model.DialogKey, st *model.DialogState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[key] = st.Step
	return nil
}

func (r *memStateRepo) GetState(ctx context.Context, key model.DialogKey) (*model.DialogState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &model.DialogState{Step: r.m[key]}, nil
}

func (r *memStateRepo) ClearState(ctx context.Context, key model.DialogKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, key)
	return nil
}

// scriptRand replays script for the first IntN calls, then falls back to a seeded PCG.
type scriptRand struct {
	script   []int
	float    float64
	fallback *rand.Rand
}

func newScriptRand(float float64, script ...int) *scriptRand {
	return &scriptRand{script: script, float: float, fallback: rand.New(rand.NewPCG(7, 11))}
}

func (r *scriptRand) IntN(n int) int {
	if len(r.script) > 0 {
		v := r.script[0]
		r.script = r.script[1:]
		return v % n
	}
	return r.fallback.IntN(n)
}

func (r *scriptRand) Float64() float64 { return r.float }
