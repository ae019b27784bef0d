package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"

	goredis "github.com/redis/go-redis/v9"

	"GeoAttend/storage/redis"
)

// fakeRedis 通过 hook 在内存里应答命令，不建立连接
type fakeRedis struct {
	mu   sync.Mutex
	kv   map[string]string
	hash map[string]map[string]string
	ttl  map[string]string
}

func useFakeRedis(t *testing.T) *fakeRedis {
	t.Helper()
	f := &fakeRedis{
		kv:   map[string]string{},
		hash: map[string]map[string]string{},
		ttl:  map[string]string{},
	}
	c := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"})
	c.AddHook(f)
	redis.SetClient(c)
	t.Cleanup(func() {
		redis.SetClient(nil)
		_ = c.Close()
	})
	return f
}

func (f *fakeRedis) DialHook(next goredis.DialHook) goredis.DialHook {
	return next
}

func (f *fakeRedis) ProcessHook(_ goredis.ProcessHook) goredis.ProcessHook {
	return func(_ context.Context, cmd goredis.Cmder) error {
		f.exec(cmd)
		return nil
	}
}

func (f *fakeRedis) ProcessPipelineHook(_ goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(_ context.Context, cmds []goredis.Cmder) error {
		for _, cmd := range cmds {
			f.exec(cmd)
		}
		return nil
	}
}

func (f *fakeRedis) exec(cmd goredis.Cmder) {
	f.mu.Lock()
	defer f.mu.Unlock()

	args := make([]string, len(cmd.Args()))
	for i, a := range cmd.Args() {
		args[i] = fmt.Sprint(a)
	}

	switch cmd.Name() {
	case "set":
		// 只用到 SET key value EX n NX
		if _, ok := f.kv[args[1]]; ok {
			cmd.(*goredis.BoolCmd).SetVal(false)
			return
		}
		f.kv[args[1]] = args[2]
		cmd.(*goredis.BoolCmd).SetVal(true)
	case "get":
		v, ok := f.kv[args[1]]
		if !ok {
			cmd.SetErr(goredis.Nil)
			return
		}
		cmd.(*goredis.StringCmd).SetVal(v)
	case "del":
		var n int64
		for _, k := range args[1:] {
			if _, ok := f.kv[k]; ok {
				n++
			}
			if _, ok := f.hash[k]; ok {
				n++
			}
			delete(f.kv, k)
			delete(f.hash, k)
		}
		cmd.(*goredis.IntCmd).SetVal(n)
	case "hset":
		h := f.hash[args[1]]
		if h == nil {
			h = map[string]string{}
			f.hash[args[1]] = h
		}
		for i := 2; i+1 < len(args); i += 2 {
			h[args[i]] = args[i+1]
		}
		cmd.(*goredis.IntCmd).SetVal(int64((len(args) - 2) / 2))
	case "hgetall":
		out := map[string]string{}
		for k, v := range f.hash[args[1]] {
			out[k] = v
		}
		cmd.(*goredis.MapStringStringCmd).SetVal(out)
	case "expire":
		f.ttl[args[1]] = args[2]
		cmd.(*goredis.BoolCmd).SetVal(true)
	case "evalsha", "eval":
		// 解锁脚本：KEYS[1] 的值等于 ARGV[1] 时删除
		key, token := args[3], args[4]
		if f.kv[key] == token {
			delete(f.kv, key)
			cmd.(*goredis.Cmd).SetVal(int64(1))
			return
		}
		cmd.(*goredis.Cmd).SetVal(int64(0))
	}
}
