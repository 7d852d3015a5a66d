package utils

import (
	"context"
	"strings"
	"sync"
	"time"
)

const loginGuardPrefix = "login:"

type localFailures struct {
	count  int
	window time.Time
}

var (
	localFails  = map[string]*localFailures{}
	localBans   = map[string]time.Time{}
	loginMu     sync.Mutex
	failureSpan = time.Hour
)

func loginKey(parts ...string) string {
	return loginGuardPrefix + strings.Join(parts, ":")
}

// LoginFailRecord increments the hourly failure count for ip and returns it.
func LoginFailRecord(ctx context.Context, ip string) int {
	if cli := GetRedis(); cli != nil {
		ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		key := loginKey("failhour", ip, time.Now().Format("2006010215"))
		if n, err := cli.Incr(ctx, key).Result(); err == nil {
			_ = cli.Expire(ctx, key, failureSpan).Err()
			return int(n)
		}
	}

	loginMu.Lock()
	defer loginMu.Unlock()
	now := time.Now()
	sweepLocked(now)
	f, ok := localFails[ip]
	if !ok || now.Sub(f.window) > failureSpan {
		f = &localFailures{window: now}
		localFails[ip] = f
	}
	f.count++
	return f.count
}

// LoginIsBanned checks the temporary ban status for ip.
func LoginIsBanned(ctx context.Context, ip string) bool {
	if cli := GetRedis(); cli != nil {
		ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		if n, err := cli.Exists(ctx, loginKey("ban", ip)).Result(); err == nil && n > 0 {
			return true
		}
	}

	loginMu.Lock()
	defer loginMu.Unlock()
	until, ok := localBans[ip]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(localBans, ip)
		return false
	}
	return true
}

// LoginBan bans ip from the token endpoint for d.
func LoginBan(ctx context.Context, ip string, d time.Duration) {
	if d <= 0 {
		d = 15 * time.Minute
	}
	if cli := GetRedis(); cli != nil {
		ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		if err := cli.Set(ctx, loginKey("ban", ip), "1", d).Err(); err == nil {
			return
		}
	}
	loginMu.Lock()
	sweepLocked(time.Now())
	localBans[ip] = time.Now().Add(d)
	delete(localFails, ip)
	loginMu.Unlock()
}

// LoginReset forgets failures for ip after a successful login.
func LoginReset(ctx context.Context, ip string) {
	if cli := GetRedis(); cli != nil {
		ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		_ = cli.Del(ctx, loginKey("failhour", ip, time.Now().Format("2006010215"))).Err()
	}
	loginMu.Lock()
	delete(localFails, ip)
	loginMu.Unlock()
}

// sweepLocked drops lapsed failure windows and bans. loginMu must be held.
func sweepLocked(now time.Time) {
	for ip, f := range localFails {
		if now.Sub(f.window) > failureSpan {
			delete(localFails, ip)
		}
	}
	for ip, until := range localBans {
		if now.After(until) {
			delete(localBans, ip)
		}
	}
}
