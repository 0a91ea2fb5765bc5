package resolve

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

const lockFileName = ".bookpipe.lock"

var (
	ErrProfileLocked  = errors.New("browser profile is in use by another job")
	ErrProfileMissing = errors.New("browser profile directory does not exist")
)

// Session owns a persistent browser context on a signed-in profile and the
// lock that keeps other jobs off that profile. Close must be called on
// every path once Open succeeds.
type Session struct {
	profileDir string
	runner     browserRunner
	bctx       browserContext
	page       Page

	closeOnce sync.Once
	closeErr  error
}

type SessionOptions struct {
	ProfileDir string
	// DownloadsDir, when set, receives every download the page starts for
	// as long as the session is open.
	DownloadsDir string
	Headless     bool
	Logger       *zap.Logger
	// SkipInstall avoids the browser download check, for hosts where the
	// driver is provisioned separately.
	SkipInstall bool
}

func OpenSession(opts SessionOptions) (*Session, error) {
	return openSessionWith(opts, playwrightProvider{})
}

func openSessionWith(opts SessionOptions, provider browserProvider) (*Session, error) {
	info, err := os.Stat(opts.ProfileDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrProfileMissing, opts.ProfileDir)
	}
	if err := acquireLock(opts.ProfileDir); err != nil {
		return nil, err
	}

	s := &Session{profileDir: opts.ProfileDir}
	fail := func(err error) (*Session, error) {
		_ = s.Close()
		return nil, err
	}

	if !opts.SkipInstall {
		if err := provider.Install(); err != nil {
			return fail(fmt.Errorf("install playwright: %w", err))
		}
	}
	s.runner, err = provider.Run()
	if err != nil {
		return fail(fmt.Errorf("start playwright: %w", err))
	}
	s.bctx, err = s.runner.LaunchPersistent(opts.ProfileDir, opts.DownloadsDir, opts.Headless)
	if err != nil {
		return fail(fmt.Errorf("launch browser: %w", err))
	}
	s.page, err = s.bctx.Page()
	if err != nil {
		return fail(fmt.Errorf("open page: %w", err))
	}
	if opts.DownloadsDir != "" {
		s.page.OnDownload(saveDownloads(opts.DownloadsDir, opts.Logger))
	}
	return s, nil
}

func (s *Session) Page() Page {
	return s.page
}

// Close releases the browser context, the driver and the profile lock.
// It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.bctx != nil {
			if err := s.bctx.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close browser: %w", err))
			}
		}
		if s.runner != nil {
			if err := s.runner.Stop(); err != nil {
				errs = append(errs, fmt.Errorf("stop playwright: %w", err))
			}
		}
		if err := releaseLock(s.profileDir); err != nil {
			errs = append(errs, err)
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

func acquireLock(profileDir string) error {
	path := filepath.Join(profileDir, lockFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w (remove %s if no job is running)", ErrProfileLocked, path)
		}
		return fmt.Errorf("lock profile: %w", err)
	}
	_, err = f.WriteString(strconv.Itoa(os.Getpid()) + "\n")
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("lock profile: %w", err)
	}
	return nil
}

func releaseLock(profileDir string) error {
	err := os.Remove(filepath.Join(profileDir, lockFileName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("unlock profile: %w", err)
	}
	return nil
}
