package analysisentry

import "github.com/uber/analysis-sync/src/anasync/internal/sinkregistry"

// Property returns the value stored under key.
func (e *Entry) Property(key string) (any, bool) {
	return e.properties.Get(key)
}

// SetProperty stores value under key, replacing any previous value.
func (e *Entry) SetProperty(key string, value any) {
	e.properties.Set(key, value)
}

// DeleteProperty removes the value stored under key.
func (e *Entry) DeleteProperty(key string) {
	e.properties.Remove(key)
}

// PropertyAs returns the value stored under key if it is a T.
func PropertyAs[T any](e *Entry, key string) (T, bool) {
	return sinkregistry.Lookup[T](e.properties, key)
}

// GetOrCreateProperty returns the T stored under key, storing the result of create if nothing is stored yet.
func GetOrCreateProperty[T any](e *Entry, key string, create func() T) (T, error) {
	return sinkregistry.GetOrAdd(e.properties, key, create)
}
