package git

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// commitFormat matches parseCommitLine; the subject goes last so it may contain the separator
const commitFormat = "%H|%h|%an|%ae|%at|%s"

// PendingCommits reads the commits reachable from upstream but not from HEAD
func (r *Repository) PendingCommits(ctx context.Context, upstream string) (*PendingCommits, error) {
	output, err := r.run(ctx, "log", "--pretty=format:"+commitFormat, fmt.Sprintf("HEAD..%s", upstream))
	if err != nil {
		return nil, fmt.Errorf("failed to read pending commits: %w", err)
	}

	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pending commits: %w", err)
	}

	log.Debug().Str("upstream", upstream).Int("count", len(lines)).Msg("Read pending commits")

	return newPendingCommits(lines), nil
}

func parseCommitLine(line string) (CommitSummary, error) {
	parts := strings.SplitN(line, "|", 6)
	if len(parts) != 6 {
		return CommitSummary{}, fmt.Errorf("expected 6 fields, got %d", len(parts))
	}

	timestamp, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		return CommitSummary{}, fmt.Errorf("invalid author timestamp '%s': %w", parts[4], err)
	}

	return CommitSummary{
		Hash:        parts[0],
		ShortHash:   parts[1],
		Author:      parts[2],
		AuthorEmail: parts[3],
		Date:        time.Unix(timestamp, 0),
		Subject:     parts[5],
	}, nil
}
