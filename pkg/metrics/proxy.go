package metrics

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CollectWorkerMetrics fans out a GET to every task manager's metrics
// address and concatenates the bodies, separated by a blank line,
// tolerating individual failures as an empty contribution: a failed or
// slow worker never takes down the aggregate response, it just
// contributes nothing.
func CollectWorkerMetrics(ctx context.Context, workerAddresses []string, log *zap.SugaredLogger) string {
	if len(workerAddresses) == 0 {
		return ""
	}

	client := &http.Client{Timeout: 5 * time.Second}
	results := make([]string, len(workerAddresses))

	var wg sync.WaitGroup
	for i, addr := range workerAddresses {
		wg.Add(1)
		go func(i int, addr string) {
			defer wg.Done()
			results[i] = fetchOne(ctx, client, addr, log)
		}(i, addr)
	}
	wg.Wait()

	var b strings.Builder
	for _, r := range results {
		if r == "" {
			continue
		}
		b.WriteString(r)
		b.WriteString("\n\n")
	}
	return b.String()
}

func fetchOne(ctx context.Context, client *http.Client, addr string, log *zap.SugaredLogger) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		if log != nil {
			log.Errorw("proxy metrics request build error", "addr", addr, "error", err)
		}
		return ""
	}

	resp, err := client.Do(req)
	if err != nil {
		if log != nil {
			log.Errorw("proxy metrics error", "addr", addr, "error", err)
		}
		return ""
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if log != nil {
			log.Errorw("no metrics message found", "addr", addr, "error", err)
		}
		return ""
	}
	return string(body)
}
