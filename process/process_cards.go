package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"quizbe/models"
	"quizbe/pkg/cardocr"
)

// Global DB handle for helper funcs
var db *gorm.DB

// global flags (parsed in main)
var verbose bool

type verdict string

const (
	verdictVerified verdict = "VERIFIED"
	verdictUnknown  verdict = "UNKNOWN"
	verdictMismatch verdict = "MISMATCH"
	verdictFailed   verdict = "FAILED"
)

// studentIndex caches registered matricules so the worker pool does not
// hit the database once per file.
type studentIndex struct {
	byMatricule map[string]*models.User
	mu          sync.RWMutex
}

func newStudentIndex() *studentIndex {
	return &studentIndex{byMatricule: make(map[string]*models.User, 1024)}
}

func (si *studentIndex) get(matricule string) (*models.User, bool) {
	si.mu.RLock()
	defer si.mu.RUnlock()
	u, ok := si.byMatricule[matricule]
	return u, ok
}

func mustInitDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatalf("DB_DSN must be set in environment to run this tool")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return gdb
}

// Main: scans a directory of student card photos, runs the recognition
// pipeline on each and reports whether the card matches a registered
// student. Optional watch mode for drop-folder workflows.
func main() {
	dirFlag := flag.String("dir", "public/cards", "directory to scan for card images")
	dryRun := flag.Bool("dry-run", false, "Skip the DB lookup; just recognize and print extracted fields")
	watch := flag.Bool("watch", false, "Watch directory for new files")
	workers := flag.Int("workers", 0, "Worker pool size (default NumCPU)")
	timeout := flag.Duration("timeout", 30*time.Second, "Recognition timeout per file")
	flag.BoolVar(&verbose, "verbose", false, "Verbose per-file logging")
	flag.Parse()

	cfg := cardocr.DefaultConfig()
	cfg.RecognizeTimeout = *timeout
	pipeline := cardocr.New(cfg)

	var idx *studentIndex
	if !*dryRun {
		db = mustInitDBFromEnv()
		idx = preloadStudents()
		log.Printf("Preloaded: students=%d", len(idx.byMatricule))
	}

	files := listImageFiles(*dirFlag)
	log.Printf("Scanning %d files (workers=%d)", len(files), effectiveWorkers(*workers))
	runWorkerPool(*dirFlag, pipeline, idx, files, effectiveWorkers(*workers))

	if *watch {
		if err := watchDirectory(*dirFlag, pipeline, idx, effectiveWorkers(*workers)); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}

func effectiveWorkers(w int) int {
	if w <= 0 {
		return runtime.NumCPU()
	}
	return w
}

func logV(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}

// preloadStudents fetches every account with a matricule in one query.
func preloadStudents() *studentIndex {
	idx := newStudentIndex()
	var users []models.User
	if err := db.Where("matricule <> ''").Find(&users).Error; err != nil {
		log.Fatalf("failed to preload students: %v", err)
	}
	for i := range users {
		u := users[i]
		idx.byMatricule[strings.ToLower(u.Matricule)] = &u
	}
	return idx
}

func listImageFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !isSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func isSupportedExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".webp":
		return true
	}
	return false
}

func watchDirectory(dir string, pipeline *cardocr.Pipeline, idx *studentIndex, workers int) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", dir)

	fileCh := make(chan string, 256)
	go func() {
		// simple debounce map of pending files
		pending := map[string]time.Time{}
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					close(fileCh)
					return
				}
				if ev.Op&fsnotify.Create == fsnotify.Create {
					name := filepath.Base(ev.Name)
					if !isSupportedExt(name) {
						continue
					}
					pending[name] = time.Now()
				}
			case <-ticker.C:
				now := time.Now()
				for name, t := range pending {
					if now.Sub(t) > 300*time.Millisecond { // stable
						fileCh <- name
						delete(pending, name)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					close(fileCh)
					return
				}
				log.Printf("watch error: %v", err)
			}
		}
	}()

	go runWorkerPool(dir, pipeline, idx, nil, workers, fileCh)
	// block forever (Ctrl+C to exit)
	select {}
}

// worker pool orchestrator
func runWorkerPool(dir string, pipeline *cardocr.Pipeline, idx *studentIndex, initial []string, workers int, extraCh ...<-chan string) {
	fileCh := make(chan string, 1024)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range fileCh {
				processSingleFile(dir, name, pipeline, idx)
			}
		}()
	}
	go func() {
		for _, f := range initial {
			fileCh <- f
		}
		for _, ch := range extraCh {
			go func(c <-chan string) {
				for n := range c {
					fileCh <- n
				}
			}(ch)
		}
		// if no extraCh (scan only) close when done
		if len(extraCh) == 0 {
			close(fileCh)
		}
	}()
	if len(extraCh) == 0 {
		wg.Wait()
	}
}

// processSingleFile runs one card photo through recognition and reports
// a verdict against the registered student roster.
func processSingleFile(dir, name string, pipeline *cardocr.Pipeline, idx *studentIndex) {
	raw, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		log.Printf("%s file=%s err=%v", verdictFailed, name, err)
		return
	}
	res, err := pipeline.Run(context.Background(), raw)
	if err != nil {
		log.Printf("%s file=%s err=%v", verdictFailed, name, err)
		return
	}
	if !res.Validation.Valid {
		log.Printf("%s file=%s errors=%v", verdictFailed, name, res.Validation.Errors)
		return
	}
	logV("extracted file=%s matricule=%s name=%q", name, res.Data.Matricule, res.Data.Name)

	if idx == nil { // dry-run
		log.Printf("DRY file=%s matricule=%s name=%q", name, res.Data.Matricule, res.Data.Name)
		return
	}

	user, ok := idx.get(res.Data.Matricule)
	if !ok {
		log.Printf("%s file=%s matricule=%s", verdictUnknown, name, res.Data.Matricule)
		return
	}
	expected := strings.ToUpper(user.FullName())
	if !cardocr.NamesMatch(expected, strings.ToUpper(res.Data.Name), pipeline.Match()) {
		log.Printf("%s file=%s matricule=%s expected=%q card=%q", verdictMismatch, name, res.Data.Matricule, expected, res.Data.Name)
		return
	}
	log.Printf("%s file=%s matricule=%s user=%d", verdictVerified, name, res.Data.Matricule, user.ID)
}
