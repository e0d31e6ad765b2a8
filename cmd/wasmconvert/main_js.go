//go:build js && wasm

package main

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall/js"
)

var (
	loadOnce sync.Once
	instance js.Value
	loadErr  error

	busy atomic.Bool
)

func main() {
	js.Global().Set("convertVideo", js.FuncOf(convertVideo))
	js.Global().Set("downloadName", js.FuncOf(func(_ js.Value, args []js.Value) any {
		name := ""
		if len(args) > 0 && args[0].Type() == js.TypeString {
			name = args[0].String()
		}
		return newPlan(name, "").DownloadName
	}))

	// Exported functions only work while main is alive.
	select {}
}

// convertVideo(file, bitrate, onProgress) returns a Promise resolving to
// an object URL for the converted MP4. onProgress is optional and receives
// integer percentages.
func convertVideo(_ js.Value, args []js.Value) any {
	file := argAt(args, 0)
	bitrate := bitrateString(argAt(args, 1))
	onProgress := argAt(args, 2)

	executor := js.FuncOf(func(_ js.Value, pargs []js.Value) any {
		resolve, reject := pargs[0], pargs[1]
		go func() {
			url, err := run(file, bitrate, onProgress)
			if err != nil {
				var ue *userError
				if errors.As(err, &ue) && ue.cause != nil {
					js.Global().Get("console").Call("error", "Conversion failed:", ue.cause.Error())
				}
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			resolve.Invoke(url)
		}()
		return nil
	})
	defer executor.Release()

	return js.Global().Get("Promise").New(executor)
}

func run(file js.Value, bitrate string, onProgress js.Value) (string, error) {
	if file.IsUndefined() || file.IsNull() {
		return "", failWith(msgNoFile, nil)
	}
	if !busy.CompareAndSwap(false, true) {
		return "", failWith(msgBusy, nil)
	}
	defer busy.Store(false)

	ffmpeg, err := load()
	if err != nil {
		return "", failWith(msgUnavailable, err)
	}

	p := newPlan(file.Get("name").String(), bitrate)

	report := progressReporter(func(pct int) {
		if onProgress.Type() == js.TypeFunction {
			onProgress.Invoke(pct)
		}
	})
	progress := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if ratio := argAt(args, 0).Get("ratio"); ratio.Type() == js.TypeNumber {
			report(ratio.Float())
		}
		return nil
	})
	defer progress.Release()
	if _, err := call(ffmpeg, "setProgress", progress); err != nil {
		return "", failWith(msgProcessing, err)
	}

	data, err := await(js.Global().Get("FFmpeg").Call("fetchFile", file))
	if err != nil {
		return "", failWith(msgProcessing, fmt.Errorf("reading %s: %w", p.InputName, err))
	}

	defer removeVirtual(ffmpeg, p.InputName, p.OutputName)

	if _, err := call(ffmpeg, "FS", "writeFile", p.InputName, data); err != nil {
		return "", failWith(msgProcessing, err)
	}

	runArgs := make([]any, len(p.Args))
	for i, a := range p.Args {
		runArgs[i] = a
	}
	promise, err := call(ffmpeg, "run", runArgs...)
	if err != nil {
		return "", failWith(msgProcessing, err)
	}
	if _, err := await(promise); err != nil {
		return "", failWith(msgProcessing, err)
	}

	out, err := call(ffmpeg, "FS", "readFile", p.OutputName)
	if err != nil {
		return "", failWith(msgProcessing, fmt.Errorf("no output produced: %w", err))
	}
	if out.Get("length").Int() == 0 {
		return "", failWith(msgProcessing, errors.New("empty output"))
	}

	opts := js.Global().Get("Object").New()
	opts.Set("type", "video/mp4")
	blob := js.Global().Get("Blob").New(js.Global().Get("Array").New(out.Get("buffer")), opts)
	return js.Global().Get("URL").Call("createObjectURL", blob).String(), nil
}

// load creates and loads the FFmpeg instance once per page.
func load() (js.Value, error) {
	loadOnce.Do(func() {
		lib := js.Global().Get("FFmpeg")
		if lib.IsUndefined() || lib.Get("createFFmpeg").Type() != js.TypeFunction {
			loadErr = errors.New("FFmpeg global is not defined")
			return
		}
		if js.Global().Get("SharedArrayBuffer").IsUndefined() {
			loadErr = errors.New("SharedArrayBuffer unavailable (page is not cross-origin isolated)")
			return
		}

		opts := js.Global().Get("Object").New()
		opts.Set("log", true)
		opts.Set("corePath", corePath)

		ff, err := call(lib, "createFFmpeg", opts)
		if err != nil {
			loadErr = err
			return
		}
		promise, err := call(ff, "load")
		if err != nil {
			loadErr = err
			return
		}
		if _, err := await(promise); err != nil {
			loadErr = err
			return
		}
		instance = ff
	})
	return instance, loadErr
}

func removeVirtual(ffmpeg js.Value, names ...string) {
	for _, name := range names {
		if _, err := call(ffmpeg, "FS", "unlink", name); err != nil {
			js.Global().Get("console").Call("warn", "Failed to clean up FFmpeg filesystem:", err.Error())
		}
	}
}

// await blocks the calling goroutine until p settles. It must not run on
// the JS event loop goroutine.
func await(p js.Value) (js.Value, error) {
	type result struct {
		v   js.Value
		err error
	}
	ch := make(chan result, 1)

	then := js.FuncOf(func(_ js.Value, args []js.Value) any {
		ch <- result{v: argAt(args, 0)}
		return nil
	})
	defer then.Release()
	catch := js.FuncOf(func(_ js.Value, args []js.Value) any {
		ch <- result{err: jsError(argAt(args, 0))}
		return nil
	})
	defer catch.Release()

	p.Call("then", then, catch)
	r := <-ch
	return r.v, r.err
}

// call invokes a method and turns a thrown JS exception into an error.
func call(v js.Value, method string, args ...any) (result js.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if jsErr, ok := r.(js.Error); ok {
				err = jsErr
				return
			}
			err = fmt.Errorf("%s: %v", method, r)
		}
	}()
	return v.Call(method, args...), nil
}

func jsError(v js.Value) error {
	if v.Type() == js.TypeObject && v.Get("message").Type() == js.TypeString {
		return errors.New(v.Get("message").String())
	}
	if v.IsUndefined() {
		return errors.New("promise rejected")
	}
	return errors.New(v.String())
}

func argAt(args []js.Value, i int) js.Value {
	if i < len(args) {
		return args[i]
	}
	return js.Undefined()
}

func bitrateString(v js.Value) string {
	switch v.Type() {
	case js.TypeString:
		return v.String()
	case js.TypeNumber:
		return strconv.Itoa(v.Int())
	default:
		return ""
	}
}
