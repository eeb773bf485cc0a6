//go:build js && wasm

package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"syscall/js"

	"github.com/anchorageoss/haloverify/crypto"
	"github.com/anchorageoss/haloverify/verify"
	"github.com/anchorageoss/haloverify/wasm"
)

func main() {
	c := make(chan struct{})

	// haloVerify(pkN, rnd, rndsig) resolves to {valid, counter, publicKey, ...}
	js.Global().Set("haloVerify", js.FuncOf(promise(3, verifyTap)))
	// haloVerifyKeyAttestation(pk2, keyNo, publicKey, attest, pk2Attest, roots)
	js.Global().Set("haloVerifyKeyAttestation", js.FuncOf(promise(6, verifyKeyAttestation)))

	println("HaLo verifier WASM loaded")

	<-c
}

// promise wraps fn as a JavaScript function returning a Promise. All arguments
// are strings.
func promise(argc int, fn func(args []string) (interface{}, error)) func(js.Value, []js.Value) interface{} {
	return func(this js.Value, args []js.Value) interface{} {
		strArgs := make([]string, argc)
		for i := 0; i < argc && i < len(args); i++ {
			if args[i].Type() == js.TypeString {
				strArgs[i] = args[i].String()
			}
		}

		handler := js.FuncOf(func(this js.Value, p []js.Value) interface{} {
			resolve, reject := p[0], p[1]

			go func() {
				result, err := fn(strArgs)
				if err != nil {
					reject.Invoke(js.Global().Get("Error").New(err.Error()))
					return
				}
				resolve.Invoke(js.ValueOf(result))
			}()

			return nil
		})

		return js.Global().Get("Promise").New(handler)
	}
}

func decodeArgs(names []string, args []string) ([][]byte, error) {
	out := make([][]byte, len(names))
	for i, name := range names {
		b, err := hex.DecodeString(args[i])
		if err != nil {
			return nil, fmt.Errorf("invalid hex value for %s: %w", name, err)
		}
		out[i] = b
	}
	return out, nil
}

func verifyTap(args []string) (interface{}, error) {
	b, err := decodeArgs([]string{"pkN", "rnd", "rndsig"}, args)
	if err != nil {
		return nil, err
	}

	result, err := verify.VerifyAttestation(b[0], b[1], b[2])
	if errors.Is(err, verify.ErrBadSignature) {
		return map[string]interface{}{"valid": false}, nil
	}
	if err != nil {
		return nil, err
	}

	output := verify.NewFormatter().FormatJSON(result)
	// js.ValueOf has no case for uint32
	output["counter"] = int(result.Counter)
	return output, nil
}

func verifyKeyAttestation(args []string) (interface{}, error) {
	b, err := decodeArgs([]string{"pk2", "keyNo", "publicKey", "attest", "pk2Attest"}, args[:5])
	if err != nil {
		return nil, err
	}
	pk2, keyNo, publicKey, attest, pk2Attest := b[0], b[1], b[2], b[3], b[4]

	if len(pk2Attest) > 0 {
		provider, err := wasm.NewMemoryRootProvider(args[5])
		if err != nil {
			return nil, err
		}
		roots, err := provider.GetRoots(context.Background())
		if err != nil {
			return nil, err
		}
		if _, err := crypto.VerifyPK2Attestation(roots, pk2, pk2Attest); err != nil {
			if errors.Is(err, crypto.ErrUntrustedAttestation) {
				return map[string]interface{}{"valid": false}, nil
			}
			return nil, err
		}
	}

	err = crypto.VerifyKeyAttestation(pk2, keyNo, publicKey, attest)
	if errors.Is(err, crypto.ErrBadAttestation) {
		return map[string]interface{}{"valid": false}, nil
	}
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"valid": true}, nil
}
