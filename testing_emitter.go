package libemit

import (
	"github.com/stretchr/testify/mock"
)

type mockEmitter[K comparable, V any] struct {
	mock.Mock
}

func (m *mockEmitter[K, V]) On(event K, listener *Listener[V]) error {
	args := m.Called(event, listener)
	return args.Error(0)
}

func (m *mockEmitter[K, V]) Once(event K, listener *Listener[V]) error {
	args := m.Called(event, listener)
	return args.Error(0)
}

func (m *mockEmitter[K, V]) RemoveListener(event K, listener *Listener[V]) bool {
	args := m.Called(event, listener)
	return args.Bool(0)
}

func (m *mockEmitter[K, V]) Listeners(event K) []*Listener[V] {
	args := m.Called(event)
	listeners, _ := args.Get(0).([]*Listener[V])
	return listeners
}

func (m *mockEmitter[K, V]) EventNames() []K {
	args := m.Called()
	names, _ := args.Get(0).([]K)
	return names
}

func (m *mockEmitter[K, V]) Emit(event K, data V) {
	m.Called(event, data)
}
