package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ZebulonRouseFrantzich/gearbox/internal/binary"
	"github.com/ZebulonRouseFrantzich/gearbox/internal/catalog"
	"github.com/ZebulonRouseFrantzich/gearbox/internal/console"
	"github.com/ZebulonRouseFrantzich/gearbox/internal/platform"
	"github.com/ZebulonRouseFrantzich/gearbox/internal/probe"
	"github.com/ZebulonRouseFrantzich/gearbox/internal/transaction"
)

// DefaultWorkers bounds concurrent per-tool work when none is configured.
const DefaultWorkers = 4

const confirmPrompt = "      Continue? Y/n: "

// Prober reports whether a program is present at an expected version.
type Prober interface {
	Check(ctx context.Context, program, version string) probe.Result
}

// Installer places a link's artifact at dest using workDir for scratch files.
type Installer interface {
	Install(ctx context.Context, link catalog.LinkSpec, dest, workDir string) (*binary.InstallResult, error)
}

// Executor runs a program in the foreground and returns its exit code.
type Executor interface {
	Exec(ctx context.Context, name string, args ...string) (int, error)
}

// ToolOptions carries the dependencies of a ToolService.
type ToolOptions struct {
	Tools     *catalog.Registry[*catalog.Tool]
	Prober    Prober
	Installer Installer
	Executor  Executor
	Console   console.Console
	Platform  platform.Platform

	// CacheDir holds the lock and the batch journals.
	CacheDir string
	// TempDir is where batch scratch roots are created. Empty means the
	// system default.
	TempDir string
	Workers int
	Logger  Logger
	Now     func() time.Time
}

// ToolService lists, installs, removes and runs catalog tools.
type ToolService struct {
	tools     *catalog.Registry[*catalog.Tool]
	prober    Prober
	installer Installer
	executor  Executor
	console   console.Console
	platform  platform.Platform
	cacheDir  string
	tempDir   string
	workers   int
	logger    Logger
	now       func() time.Time
}

// NewToolService creates a tool service.
func NewToolService(opts ToolOptions) *ToolService {
	s := &ToolService{
		tools:     opts.Tools,
		prober:    opts.Prober,
		installer: opts.Installer,
		executor:  opts.Executor,
		console:   opts.Console,
		platform:  opts.Platform,
		cacheDir:  opts.CacheDir,
		tempDir:   opts.TempDir,
		workers:   opts.Workers,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if s.workers < 1 {
		s.workers = DefaultWorkers
	}
	if s.logger == nil {
		s.logger = noopLogger{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.platform == "" {
		s.platform = platform.Current()
	}
	return s
}

// ToolStatus is one row of the tool listing.
type ToolStatus struct {
	Name      string   `json:"name"`
	Version   string   `json:"version,omitempty"`
	Tags      []string `json:"tags"`
	Path      string   `json:"path"`
	Managed   bool     `json:"managed"`
	Installed bool     `json:"installed"`
}

// ListResult contains the results of the list operation.
type ListResult struct {
	Tools []ToolStatus
	// Interrupted holds journals of batches that did not finish.
	Interrupted []*transaction.BatchTxn
}

// List probes every tool and returns them in catalog order.
func (s *ToolService) List(ctx context.Context) (*ListResult, error) {
	all := s.tools.All()
	present, err := s.probeAll(ctx, all)
	if err != nil {
		return nil, err
	}

	result := &ListResult{Tools: make([]ToolStatus, len(all))}
	for i, t := range all {
		result.Tools[i] = ToolStatus{
			Name:      t.Name,
			Version:   t.Version,
			Tags:      append([]string{}, t.Tags...),
			Path:      t.Path,
			Managed:   t.Managed,
			Installed: present[i],
		}
	}

	result.Interrupted, err = transaction.Leftovers(s.journalDir())
	if err != nil {
		return nil, fmt.Errorf("read journals: %w", err)
	}
	return result, nil
}

// BatchRequest selects the tools of an install or remove batch.
type BatchRequest struct {
	Include string
	Exclude string
	// Yes skips the confirmation prompt.
	Yes bool
}

// BatchResult reports what a batch did.
type BatchResult struct {
	// Done lists the tools installed or removed by this batch.
	Done []string
	// Skipped lists the selected tools that needed no work.
	Skipped []string
}

type batchOp struct {
	op        transaction.Operation
	verb      string // install, uninstall
	done      string // Installed, Uninstalled
	noTools   string
	wantAfter bool // presence expected after the work
}

var (
	installOp = batchOp{
		op:        transaction.OperationInstall,
		verb:      "install",
		done:      "Installed",
		noTools:   "No tools to install",
		wantAfter: true,
	}
	removeOp = batchOp{
		op:        transaction.OperationRemove,
		verb:      "uninstall",
		done:      "Uninstalled",
		noTools:   "No tools to remove",
		wantAfter: false,
	}
)

// Install installs the selected managed tools that are not already present.
func (s *ToolService) Install(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	targets, err := s.tools.Select(req.Include, req.Exclude)
	if err != nil {
		return nil, err
	}
	return s.runBatch(ctx, installOp, targets, req.Yes)
}

// Remove deletes the selected managed tools that are present.
func (s *ToolService) Remove(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	targets, err := s.tools.Select(req.Include, req.Exclude)
	if err != nil {
		return nil, err
	}
	return s.runBatch(ctx, removeOp, targets, req.Yes)
}

// Ensure installs the selected tools without asking.
func (s *ToolService) Ensure(ctx context.Context, selector string) (*BatchResult, error) {
	return s.Install(ctx, BatchRequest{Include: selector, Yes: true})
}

// Run installs the named tool if needed and runs it with args, returning the
// tool's exit code.
func (s *ToolService) Run(ctx context.Context, name string, args []string, yes bool) (int, error) {
	t, err := s.lookup(name)
	if err != nil {
		return 1, err
	}

	if t.Managed && !s.prober.Check(ctx, t.Path, t.Version).Present {
		if _, err := s.runBatch(ctx, installOp, []*catalog.Tool{t}, yes); err != nil {
			return 1, err
		}
	}

	s.logger.Debug("running tool", "tool", t.Name, "path", t.Path, "args", args)
	return s.executor.Exec(ctx, t.Path, args...)
}

func (s *ToolService) lookup(name string) (*catalog.Tool, error) {
	if t, ok := s.tools.Get(name); ok {
		return t, nil
	}
	matches, err := s.tools.ByName(name)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%s is not a valid tool", name)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("ambiguous tool %s matches %s", name, joinNames(matches))
	}
}

// runBatch drives the shared install/remove flow: pre-check, link
// pre-flight, confirmation, then concurrent per-tool work with post-checks.
func (s *ToolService) runBatch(ctx context.Context, op batchOp, targets []*catalog.Tool, yes bool) (*BatchResult, error) {
	var managed []*catalog.Tool
	for _, t := range targets {
		if !t.Managed {
			s.console.Info(t.Name + " not managed")
			continue
		}
		managed = append(managed, t)
	}

	present, err := s.probeAll(ctx, managed)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{}
	var pending []*catalog.Tool
	for i, t := range managed {
		if present[i] == op.wantAfter {
			if op.wantAfter {
				s.console.Info(t.Name + " already installed")
			} else {
				s.console.Info(t.Name + " not installed")
			}
			result.Skipped = append(result.Skipped, t.Name)
			continue
		}
		pending = append(pending, t)
	}

	if len(pending) == 0 {
		s.console.Warn(op.noTools)
		return result, nil
	}

	links := make(map[string]catalog.LinkSpec, len(pending))
	if op.wantAfter {
		for _, t := range pending {
			link, ok := t.LinkFor(s.platform)
			if !ok {
				return nil, &NoLinkError{Tool: t.Name, Platform: s.platform}
			}
			links[t.Name] = link
		}
	}

	styled := s.console.Good(op.verb + "ed")
	if !op.wantAfter {
		styled = s.console.Bad(op.verb + "ed")
	}
	s.console.Info(fmt.Sprintf("Tool(s) %s will be %s", joinNames(pending), styled))

	if !yes {
		ok, err := s.console.Confirm(ctx, confirmPrompt)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrDeclined
		}
	}

	lock, err := transaction.AcquireLock(ctx, s.cacheDir)
	if err != nil {
		return nil, fmt.Errorf("acquire cache lock: %w", err)
	}
	defer func() { _ = lock.Release() }()

	paths := make(map[string]string, len(pending))
	names := make([]string, len(pending))
	for i, t := range pending {
		names[i] = t.Name
		paths[t.Name] = t.Path
	}
	journal := transaction.New(op.op, names, paths)
	journal.Timestamp = s.now().UTC()
	if err := journal.Save(s.journalDir()); err != nil {
		return nil, err
	}

	var root string
	if op.wantAfter {
		root, err = makeTempRoot(s.tempDir)
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := binary.Remove(root); err != nil {
				s.logger.Warn("remove batch temp dir", "dir", root, "error", err)
			}
		}()
	}

	start := s.now()
	errs := make([]error, len(pending))
	done := make([]bool, len(pending))
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i, t := range pending {
		g.Go(func() error {
			var err error
			if op.wantAfter {
				err = s.installOne(ctx, journal, t, links[t.Name], root)
			} else {
				err = s.removeOne(ctx, journal, t)
			}
			mu.Lock()
			errs[i] = err
			done[i] = err == nil
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for i, t := range pending {
		if done[i] {
			result.Done = append(result.Done, t.Name)
		}
	}
	s.logger.Debug("batch finished", "op", op.op, "tools", len(pending), "elapsed", s.now().Sub(start))

	if ctx.Err() == nil {
		if err := journal.Discard(); err != nil {
			s.logger.Warn("discard journal", "error", err)
		}
	}
	return result, errors.Join(errs...)
}

func (s *ToolService) installOne(ctx context.Context, journal *transaction.BatchTxn, t *catalog.Tool, link catalog.LinkSpec, root string) error {
	if err := ctx.Err(); err != nil {
		return s.fail(journal, t, installOp, err)
	}
	s.record(journal, t.Name, transaction.StateInProgress, nil)

	workDir := filepath.Join(root, uuid.NewString())
	defer func() { _ = binary.Remove(workDir) }()

	if err := binary.EnsureDir(filepath.Dir(t.Path)); err != nil {
		return s.fail(journal, t, installOp, err)
	}
	res, err := s.installer.Install(ctx, link, t.Path, workDir)
	if err != nil {
		return s.fail(journal, t, installOp, err)
	}
	s.logger.Debug("installed artifact", "tool", t.Name, "path", res.Path, "format", res.Format,
		"verified", res.Verified, "download_time", res.DownloadTime)

	if check := s.prober.Check(ctx, t.Path, t.Version); !check.Present {
		s.logger.Debug("post-install probe failed", "tool", t.Name, "error", check.Err)
		return s.fail(journal, t, installOp, nil)
	}
	s.record(journal, t.Name, transaction.StateCompleted, nil)
	s.console.Print(fmt.Sprintf("%s %s", installOp.done, s.label(t, true)))
	return nil
}

func (s *ToolService) removeOne(ctx context.Context, journal *transaction.BatchTxn, t *catalog.Tool) error {
	if err := ctx.Err(); err != nil {
		return s.fail(journal, t, removeOp, err)
	}
	s.record(journal, t.Name, transaction.StateInProgress, nil)

	if err := binary.Remove(t.Path); err != nil {
		return s.fail(journal, t, removeOp, err)
	}
	if s.prober.Check(ctx, t.Path, t.Version).Present {
		return s.fail(journal, t, removeOp, nil)
	}
	s.record(journal, t.Name, transaction.StateCompleted, nil)
	s.console.Print(fmt.Sprintf("%s %s", removeOp.done, s.label(t, false)))
	return nil
}

func (s *ToolService) fail(journal *transaction.BatchTxn, t *catalog.Tool, op batchOp, cause error) error {
	s.record(journal, t.Name, transaction.StateFailed, cause)
	return &ToolError{Tool: t.Name, Op: op.verb, Err: cause}
}

// record updates the journal. A write failure leaves the batch running but
// makes the on-disk journal stale, so it is logged.
func (s *ToolService) record(journal *transaction.BatchTxn, name string, state transaction.State, cause error) {
	if err := journal.Update(name, state, cause); err != nil {
		s.logger.Warn("update journal", "tool", name, "state", state, "error", err)
	}
}

func (s *ToolService) label(t *catalog.Tool, good bool) string {
	name := s.console.Accent(t.Name)
	if t.Version == "" {
		return name
	}
	version := s.console.Bad(t.Version)
	if good {
		version = s.console.Good(t.Version)
	}
	return fmt.Sprintf("%s (%s)", name, version)
}

// probeAll checks tools concurrently and returns presence by index.
func (s *ToolService) probeAll(ctx context.Context, tools []*catalog.Tool) ([]bool, error) {
	present := make([]bool, len(tools))
	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i, t := range tools {
		g.Go(func() error {
			present[i] = s.prober.Check(ctx, t.Path, t.Version).Present
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return present, nil
}

// makeTempRoot creates the scratch root of one install batch.
func makeTempRoot(dir string) (string, error) {
	root, err := os.MkdirTemp(dir, "gearbox-batch-*")
	if err != nil {
		return "", fmt.Errorf("create batch temp dir: %w", err)
	}
	return root, nil
}

func (s *ToolService) journalDir() string {
	return filepath.Join(s.cacheDir, transaction.JournalDirName)
}

func joinNames(tools []*catalog.Tool) string {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return strings.Join(names, ", ")
}
