package storage

// PrefixDB is a namespace inside another DB. The CLI keeps one per network
// so a shared cache directory never mixes mainnet and testnet tokens.
type PrefixDB struct {
	inner  DB
	prefix []byte
}

func NewPrefixDB(inner DB, prefix []byte) *PrefixDB {
	return &PrefixDB{inner: inner, prefix: append([]byte(nil), prefix...)}
}

func (p *PrefixDB) key(k []byte) []byte {
	return append(append(make([]byte, 0, len(p.prefix)+len(k)), p.prefix...), k...)
}

func (p *PrefixDB) Get(k []byte) ([]byte, error) { return p.inner.Get(p.key(k)) }
func (p *PrefixDB) Put(k, v []byte) error         { return p.inner.Put(p.key(k), v) }
func (p *PrefixDB) Delete(k []byte) error         { return p.inner.Delete(p.key(k)) }
func (p *PrefixDB) Has(k []byte) (bool, error)    { return p.inner.Has(p.key(k)) }

// ForEach visits keys under prefix inside the namespace. Keys passed to fn
// have the namespace stripped.
func (p *PrefixDB) ForEach(prefix []byte, fn func(key, value []byte) error) error {
	n := len(p.prefix)
	return p.inner.ForEach(p.key(prefix), func(k, v []byte) error {
		return fn(k[n:], v)
	})
}

// Close leaves the inner DB open; its owner closes it.
func (p *PrefixDB) Close() error { return nil }
