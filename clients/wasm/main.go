//go:build js && wasm

// GoSteg WASM: client-side hide and reveal, no upload needed.
// Compiled with: GOOS=js GOARCH=wasm go build -o gosteg.wasm ./clients/wasm/
package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"syscall/js"

	"github.com/xob0t/GoSteg/pkg/container"
	"github.com/xob0t/GoSteg/pkg/generator"
	"github.com/xob0t/GoSteg/pkg/lsb"
	"github.com/xob0t/GoSteg/pkg/payload"
	"github.com/xob0t/GoSteg/pkg/stego"
)

func main() {
	fmt.Println("GoSteg WASM loaded")

	// Register JS-callable functions.
	js.Global().Set("goHide", js.FuncOf(hide))
	js.Global().Set("goReveal", js.FuncOf(reveal))
	js.Global().Set("goCapacity", js.FuncOf(capacity))
	js.Global().Set("goCover", js.FuncOf(cover))
	js.Global().Set("goReady", js.ValueOf(true))

	// Block forever (WASM must not exit).
	select {}
}

// wasmOptions mirrors the config file's layout section. Every field is
// optional; both sides of an exchange must pass the same values.
type wasmOptions struct {
	Order       string `json:"order"`
	Framing     string `json:"framing"`
	Marker      string `json:"marker"` // hex, sentinel only
	Compression string `json:"compression"`
}

func parseOptions(args []js.Value, i int) (stego.Options, error) {
	o := stego.DefaultOptions()
	if len(args) <= i || args[i].IsUndefined() || args[i].IsNull() || args[i].String() == "" {
		return o, nil
	}
	var wo wasmOptions
	if err := json.Unmarshal([]byte(args[i].String()), &wo); err != nil {
		return o, fmt.Errorf("parse options: %w", err)
	}
	if wo.Order != "" {
		order, err := lsb.ParseOrder(wo.Order)
		if err != nil {
			return o, err
		}
		o.Layout.Order = order
	}
	framing, err := lsb.ParseFraming(wo.Framing)
	if err != nil {
		return o, err
	}
	o.Layout.Framing = framing
	marker, err := lsb.ParseMarker(wo.Marker)
	if err != nil {
		return o, err
	}
	o.Layout.Marker = marker
	o.Compression = wo.Compression
	return o, o.Validate()
}

func errValue(prefix string, err error) js.Value {
	return js.ValueOf("error: " + prefix + ": " + err.Error())
}

// goHide(base64Image, message, optionsJSON?) returns a base64 PNG.
func hide(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("error: need base64Image, message")
	}
	src, err := base64.StdEncoding.DecodeString(args[0].String())
	if err != nil {
		return errValue("invalid base64", err)
	}
	o, err := parseOptions(args, 2)
	if err != nil {
		return errValue("options", err)
	}

	res, err := stego.Hide(src, payload.FromText(args[1].String()), o)
	if err != nil {
		return errValue("hide", err)
	}
	return js.ValueOf(base64.StdEncoding.EncodeToString(res.Data))
}

// goReveal(base64Image, optionsJSON?) returns a JSON object
// {"found": bool, "message": string, "warning": string}.
func reveal(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need base64Image")
	}
	src, err := base64.StdEncoding.DecodeString(args[0].String())
	if err != nil {
		return errValue("invalid base64", err)
	}
	o, err := parseOptions(args, 1)
	if err != nil {
		return errValue("options", err)
	}

	out := map[string]interface{}{"found": false}
	text, rev, err := stego.RevealText(src, o)
	switch {
	case errors.Is(err, lsb.ErrNoMessage):
		out["warning"] = "No hidden message found or image is invalid"
	case err != nil:
		return errValue("reveal", err)
	default:
		out["found"] = true
		out["message"] = text
		if rev.LossySource {
			out["warning"] = fmt.Sprintf("%s is a lossy format; the message may be corrupt", rev.SourceFormat)
		}
	}

	b, _ := json.Marshal(out)
	return js.ValueOf(string(b))
}

// goCapacity(base64Image, optionsJSON?) returns the message capacity in bytes.
func capacity(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need base64Image")
	}
	src, err := base64.StdEncoding.DecodeString(args[0].String())
	if err != nil {
		return errValue("invalid base64", err)
	}
	o, err := parseOptions(args, 1)
	if err != nil {
		return errValue("options", err)
	}
	info, err := stego.Inspect(src, o)
	if err != nil {
		return errValue("capacity", err)
	}
	return js.ValueOf(info.CapacityBytes)
}

// goCover(width, height, pattern, color) returns a base64 PNG cover.
func cover(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("error: need width, height")
	}
	cfg := generator.Config{
		Width:  args[0].Int(),
		Height: args[1].Int(),
	}
	if len(args) > 2 {
		cfg.Pattern = args[2].String()
	}
	if len(args) > 3 {
		cfg.Color = args[3].String()
	}

	img, err := generator.NewCover(cfg)
	if err != nil {
		return errValue("cover", err)
	}
	data, err := container.EncodeBytes(container.ToGrid(img), container.PNG)
	if err != nil {
		return errValue("encode", err)
	}
	return js.ValueOf(base64.StdEncoding.EncodeToString(data))
}
