package deterrent

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-audio/wav"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// soundExtensions are the playable file types under <sounds_dir>/<pest>/.
var soundExtensions = map[string]bool{".mp3": true, ".wav": true}

// Player resolves and plays deterrent sound files from the local
// filesystem layout, grounded on spec.md §4.8. available_sounds results
// are cached per pest and invalidated by an fsnotify watcher on that
// pest's subdirectory.
type Player struct {
	fs        afero.Fs
	soundsDir string
	log       zerolog.Logger

	mu     sync.Mutex
	cache  map[string][]string
	watch  *fsnotify.Watcher
	lookPath func(string) (string, error)
}

func NewPlayer(fs afero.Fs, soundsDir string, log zerolog.Logger) *Player {
	p := &Player{
		fs:        fs,
		soundsDir: soundsDir,
		log:       log.With().Str("component", "deterrent_player").Logger(),
		cache:     make(map[string][]string),
		lookPath:  exec.LookPath,
	}
	if w, err := fsnotify.NewWatcher(); err == nil {
		p.watch = w
		go p.watchLoop()
	} else {
		p.log.Warn().Err(err).Msg("fsnotify unavailable, available_sounds cache will not auto-invalidate")
	}
	return p
}

func (p *Player) watchLoop() {
	for {
		select {
		case ev, ok := <-p.watch.Events:
			if !ok {
				return
			}
			pest := filepath.Base(filepath.Dir(ev.Name))
			p.mu.Lock()
			delete(p.cache, pest)
			p.mu.Unlock()
		case err, ok := <-p.watch.Errors:
			if !ok {
				return
			}
			p.log.Warn().Err(err).Msg("fsnotify watcher error")
		}
	}
}

// AvailableSounds lists playable files under <sounds_dir>/<pest>/,
// excluding transient .crdownload files, caching until invalidated.
func (p *Player) AvailableSounds(pest string) ([]string, error) {
	p.mu.Lock()
	if cached, ok := p.cache[pest]; ok {
		p.mu.Unlock()
		return cached, nil
	}
	p.mu.Unlock()

	dir := filepath.Join(p.soundsDir, pest)
	entries, err := afero.ReadDir(p.fs, dir)
	if err != nil {
		return nil, nil // pest directory absent: no candidates, not an error
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".crdownload") {
			continue
		}
		if soundExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}

	p.mu.Lock()
	p.cache[pest] = files
	p.mu.Unlock()

	if p.watch != nil {
		_ = p.watch.Add(dir)
	}
	return files, nil
}

// PlayLocal dispatches to the platform audio command, hard-capped at
// maxDuration where the platform supports it.
func (p *Player) PlayLocal(ctx context.Context, path string, maxDuration time.Duration) (bool, error) {
	p.logWavDuration(path, maxDuration)

	seconds := strconv.Itoa(int(maxDuration.Seconds()))
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "afplay", "-t", seconds, path)
	case "linux":
		player := firstAvailable(p.lookPath, "paplay", "aplay", "mpg123")
		if player == "" {
			return false, fmt.Errorf("deterrent: no audio player found on PATH")
		}
		if timeoutBin, err := p.lookPath("timeout"); err == nil {
			cmd = exec.CommandContext(ctx, timeoutBin, seconds, player, path)
		} else {
			p.log.Warn().Msg("timeout(1) unavailable, playing without a duration cap")
			cmd = exec.CommandContext(ctx, player, path)
		}
	case "windows":
		cmd = exec.CommandContext(ctx, "cmd", "/C", "start", "", path)
	default:
		return false, fmt.Errorf("deterrent: unsupported platform %q", runtime.GOOS)
	}

	if err := cmd.Run(); err != nil {
		return false, err
	}
	return true, nil
}

func firstAvailable(lookPath func(string) (string, error), names ...string) string {
	for _, n := range names {
		if _, err := lookPath(n); err == nil {
			return n
		}
	}
	return ""
}

// logWavDuration is ambient diagnostics only — never on the playback
// path. It reports a .wav file's native duration so operators can see
// when the 10s hard cap truncates it.
func (p *Player) logWavDuration(path string, cap time.Duration) {
	if strings.ToLower(filepath.Ext(path)) != ".wav" {
		return
	}
	f, err := p.fs.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return
	}
	dur, err := dec.Duration()
	if err != nil {
		return
	}
	if dur > cap {
		p.log.Info().Str("path", path).Dur("native_duration", dur).Dur("cap", cap).Msg("wav file exceeds playback cap and will be truncated")
	}
}
