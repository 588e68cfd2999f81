package sfcli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"oss.terrastruct.com/stockflow/lib/xmain"
)

// watcher re-renders whenever the input file changes. The parent directory is
// watched rather than the file so editors that save by rename keep working.
type watcher struct {
	ctx context.Context
	ms  *xmain.State
	ro  renderOpts

	fw *fsnotify.Watcher

	// rendered is signalled after every render, for tests.
	rendered chan error
}

func newWatcher(ctx context.Context, ms *xmain.State, ro renderOpts) (*watcher, error) {
	abs, err := filepath.Abs(ro.inputPath)
	if err != nil {
		return nil, err
	}
	ro.inputPath = abs
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	err = fw.Add(filepath.Dir(abs))
	if err != nil {
		fw.Close()
		return nil, err
	}
	return &watcher{
		ctx: ctx,
		ms:  ms,
		ro:  ro,
		fw:  fw,
	}, nil
}

func (w *watcher) run() error {
	defer w.fw.Close()

	lastModified := modTime(w.ro.inputPath)
	w.render(false)

	eatBurstTimer := time.NewTimer(0)
	<-eatBurstTimer.C
	pollTicker := time.NewTicker(time.Second * 10)
	defer pollTicker.Stop()

	for {
		select {
		case <-pollTicker.C:
			// In case an event was missed.
			mt := modTime(w.ro.inputPath)
			if !mt.Equal(lastModified) {
				lastModified = mt
				w.render(true)
			}
		case ev, ok := <-w.fw.Events:
			if !ok {
				return errors.New("fsnotify watcher closed")
			}
			if filepath.Clean(ev.Name) != w.ro.inputPath {
				continue
			}
			w.ms.Log.Debug.Printf("received file system event %v", ev)
			mt := modTime(w.ro.inputPath)
			if ev.Op == fsnotify.Chmod && mt.Equal(lastModified) {
				continue
			}
			lastModified = mt
			// Batch the bursts editors write in one save.
			eatBurstTimer.Reset(time.Millisecond * 16)
		case <-eatBurstTimer.C:
			w.ms.Log.Info.Printf("detected change in %s: re-rendering...", humanPath(w.ro.inputPath))
			w.render(true)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return errors.New("fsnotify watcher closed")
			}
			w.ms.Log.Error.Printf("fsnotify error: %v", err)
		case <-w.ctx.Done():
			return nil
		}
	}
}

func (w *watcher) render(again bool) {
	prefix := ""
	if again {
		prefix = "re"
	}
	ctx, cancel := context.WithTimeout(w.ctx, time.Minute)
	defer cancel()

	err := render(ctx, w.ms, w.ro)
	if err != nil {
		w.ms.Log.Error.Printf("failed to %srender: %v", prefix, err)
	} else {
		w.ms.Log.Success.Printf("successfully %srendered %s to %s", prefix, humanPath(w.ro.inputPath), humanPath(w.ro.outputPath))
	}
	if w.rendered != nil {
		select {
		case w.rendered <- err:
		case <-w.ctx.Done():
		}
	}
}

func modTime(fp string) time.Time {
	fi, err := os.Stat(fp)
	if err != nil {
		return time.Time{}
	}
	return fi.ModTime()
}
