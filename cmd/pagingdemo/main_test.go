package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-paging-cache/repositoryloader"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(io.Discard, nil)
	require.NoError(t, err)

	assert.Equal(t, 120, cfg.Rows)
	assert.Equal(t, 20, cfg.Lookahead)
	assert.Equal(t, 80*time.Millisecond, cfg.Latency)
	assert.Equal(t, "acme", cfg.Tenant)
	assert.Empty(t, cfg.DataDir)
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rows: 30\nlookahead: 4\ntenant: file\n"), 0o600))
	t.Setenv("PAGINGDEMO_TENANT", "env")

	cfg, err := loadConfig(io.Discard, []string{"--config", path, "--lookahead", "7"})
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.Rows, "file beats default")
	assert.Equal(t, "env", cfg.Tenant, "environment beats file")
	assert.Equal(t, 7, cfg.Lookahead, "flag beats file")
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := loadConfig(io.Discard, []string{"--limit", "-1"})
	assert.Error(t, err)

	_, err = loadConfig(io.Discard, []string{"--nope"})
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := loadConfig(io.Discard, []string{
		"--rows", "60", "--latency", "0s", "--lookahead", "5",
		"--offset", "30", "--limit", "6", "--data-dir", t.TempDir(),
	})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run(ctx, &out, cfg))

	text := out.String()
	assert.Contains(t, text, "Demo completed successfully")
	assert.Contains(t, text, "refresh returned")
	assert.Contains(t, text, "head pending after refresh: 0")
	assert.True(t, strings.Contains(text, "pagingdemo_paging_cache_loads_total"), "metrics should be printed")
}

func TestFakeUserRepository_ConcurrentLoads(t *testing.T) {
	repo := newFakeUserRepository(12, time.Millisecond)
	loader := repositoryloader.New[User](repo, repositoryloader.Options{})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			resp, err := loader.Load(context.Background(), offset, 3)
			if assert.NoError(t, err) && assert.Len(t, resp.Items, 3) {
				assert.Equal(t, repo.users[offset].ID, resp.Items[0].ID)
			}
		}(i * 3)
	}
	wg.Wait()

	_, _, err := repo.List(context.Background())
	assert.Error(t, err, "a direct List has no window")
	assert.Equal(t, 4, repo.callCount())
}
