package storage

import "context"

// Scoped returns a KV that prefixes every key, isolating one session's
// counters from another's in a shared backend.
func Scoped(kv KV, prefix string) KV {
	return scopedKV{kv: kv, prefix: prefix + ":"}
}

type scopedKV struct {
	kv     KV
	prefix string
}

func (s scopedKV) Get(ctx context.Context, key string) (string, error) {
	return s.kv.Get(ctx, s.prefix+key)
}

func (s scopedKV) Set(ctx context.Context, key, value string) error {
	return s.kv.Set(ctx, s.prefix+key, value)
}

func (s scopedKV) Delete(ctx context.Context, key string) error {
	return s.kv.Delete(ctx, s.prefix+key)
}
