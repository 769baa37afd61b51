package storage

// Storage is a keyed object store that remembers which keys changed since
// they were last persisted.
type Storage[K comparable, V any] interface {
	Set(key K, value V)
	Load(key K, value V)
	Get(key K) (V, bool)
	Delete(key K) bool
	Values() []V
	GetDirty() map[K]V
	ClearDirty(keys []K)
	Count() int
}
