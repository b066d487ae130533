package eventjournal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	SpoolDir           = filepath.Join(os.TempDir(), "foe-be-gone", "eventjournal_spool")
	MaxSpoolSize int64 = 256 * 1024 * 1024 // 256MB
)

func ConfigureFailover(dir string, maxMB int64) {
	if dir != "" {
		SpoolDir = dir
	}
	if maxMB > 0 {
		MaxSpoolSize = maxMB * 1024 * 1024
	}
	_ = os.MkdirAll(SpoolDir, 0750)
}

// SpoolEvent writes an event to the local failover spool for later replay.
func SpoolEvent(evt Event) error {
	if isSpoolFull() {
		return fmt.Errorf("eventjournal: spool full, dropping event %s", evt.EventID)
	}

	payload := replayEnvelope{
		EventID:   evt.EventID.String(),
		Payload:   evt,
		Timestamp: time.Now(),
	}

	line, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	filename := filepath.Join(SpoolDir, "journal_spool.log")

	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return err
	}

	return nil
}

func isSpoolFull() bool {
	var size int64
	filepath.Walk(SpoolDir, func(_ string, info fs.FileInfo, err error) error {
		if err == nil && info != nil && !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size >= MaxSpoolSize
}

// StartReplayer runs a background ticker that periodically drains the spool.
func (s *Service) StartReplayer(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.ReplaySpool(ctx)
			}
		}
	}()
}

var replayLock sync.Mutex

// ReplaySpool attempts to flush every spooled event into the database.
// Events that still fail (DB still down) are re-spooled by WriteEvent,
// not lost.
func (s *Service) ReplaySpool(ctx context.Context) {
	replayLock.Lock()
	defer replayLock.Unlock()

	filename := filepath.Join(SpoolDir, "journal_spool.log")
	info, err := os.Stat(filename)
	if os.IsNotExist(err) || info.Size() == 0 {
		return
	}

	replayFile := filepath.Join(SpoolDir, fmt.Sprintf("replay_%d.log", time.Now().UnixNano()))
	if err := os.Rename(filename, replayFile); err != nil {
		s.log.Error().Err(err).Msg("failed to rotate spool for replay")
		return
	}

	f, err := os.Open(replayFile)
	if err != nil {
		return
	}

	scanner := bufio.NewScanner(f)
	var succeeded, failed int

	for scanner.Scan() {
		var env replayEnvelope
		if err := json.Unmarshal(scanner.Bytes(), &env); err != nil {
			failed++
			continue
		}

		if err := s.WriteEvent(ctx, env.Payload); err == nil {
			succeeded++
		}
	}
	f.Close()
	os.Remove(replayFile)

	if succeeded > 0 || failed > 0 {
		s.log.Info().Int("succeeded", succeeded).Int("failed", failed).Msg("eventjournal replay flushed")
	}
}
