package search

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisIndex keeps posting sets in Redis:
//
//	<prefix>:prefix:<term>  set of ids having a token that starts with term
//	<prefix>:exact:<term>   set of ids having term as a whole token
//	<prefix>:doc:<id>       set of "prefix:<term>"/"exact:<term>" keys the id is in
type RedisIndex struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisIndex(rdb *redis.Client, prefix string) *RedisIndex {
	return &RedisIndex{rdb: rdb, prefix: prefix}
}

func (x *RedisIndex) key(parts ...string) string {
	k := x.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (x *RedisIndex) docKey(id uint) string {
	return x.key("doc", strconv.FormatUint(uint64(id), 10))
}

func (x *RedisIndex) Upsert(ctx context.Context, doc Document) error {
	old, err := x.rdb.SMembers(ctx, x.docKey(doc.ID)).Result()
	if err != nil {
		return fmt.Errorf("search: read doc %d: %w", doc.ID, err)
	}

	exact, prefixes := Terms(doc)
	member := strconv.FormatUint(uint64(doc.ID), 10)
	postings := make([]interface{}, 0, len(exact)+len(prefixes))

	_, err = x.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range old {
			pipe.SRem(ctx, x.key(k), member)
		}
		pipe.Del(ctx, x.docKey(doc.ID))
		for _, t := range prefixes {
			pipe.SAdd(ctx, x.key("prefix", t), member)
			postings = append(postings, "prefix:"+t)
		}
		for _, t := range exact {
			pipe.SAdd(ctx, x.key("exact", t), member)
			postings = append(postings, "exact:"+t)
		}
		if len(postings) > 0 {
			pipe.SAdd(ctx, x.docKey(doc.ID), postings...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("search: upsert doc %d: %w", doc.ID, err)
	}
	return nil
}

func (x *RedisIndex) Remove(ctx context.Context, id uint) error {
	old, err := x.rdb.SMembers(ctx, x.docKey(id)).Result()
	if err != nil {
		return fmt.Errorf("search: read doc %d: %w", id, err)
	}
	member := strconv.FormatUint(uint64(id), 10)
	_, err = x.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, k := range old {
			pipe.SRem(ctx, x.key(k), member)
		}
		pipe.Del(ctx, x.docKey(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("search: remove doc %d: %w", id, err)
	}
	return nil
}

func (x *RedisIndex) Search(ctx context.Context, query string) ([]uint, error) {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	prefixCmds := make([]*redis.StringSliceCmd, len(tokens))
	exactCmds := make([]*redis.StringSliceCmd, len(tokens))
	_, err := x.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, t := range tokens {
			prefixCmds[i] = pipe.SMembers(ctx, x.key("prefix", t))
			exactCmds[i] = pipe.SMembers(ctx, x.key("exact", t))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search: query %q: %w", query, err)
	}

	prefixHits := make([][]uint, len(tokens))
	exactHits := make([][]uint, len(tokens))
	for i := range tokens {
		if prefixHits[i], err = parseIDs(prefixCmds[i].Val()); err != nil {
			return nil, err
		}
		if exactHits[i], err = parseIDs(exactCmds[i].Val()); err != nil {
			return nil, err
		}
	}
	return rank(prefixHits, exactHits), nil
}

// Ping is used by the health endpoint.
func (x *RedisIndex) Ping(ctx context.Context) error {
	return x.rdb.Ping(ctx).Err()
}

func parseIDs(members []string) ([]uint, error) {
	ids := make([]uint, 0, len(members))
	for _, m := range members {
		n, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("search: corrupt posting %q: %w", m, err)
		}
		ids = append(ids, uint(n))
	}
	return ids, nil
}
