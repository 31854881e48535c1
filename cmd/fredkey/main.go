package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/leumor/fred-reloaded-sub005/block"
	"github.com/leumor/fred-reloaded-sub005/cidutil"
	"github.com/leumor/fred-reloaded-sub005/crypt"
	"github.com/leumor/fred-reloaded-sub005/keys"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "uri":
		return cmdURI(args[1:], out, errOut)
	case "chk":
		return cmdCHK(args[1:], out, errOut)
	case "ssk":
		return cmdSSK(args[1:], out, errOut)
	case "cid":
		return cmdCID(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "fredkey: key, locator and block verification CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  fredkey uri parse <locator>")
	fmt.Fprintln(w, "  fredkey uri normalize <locator>")
	fmt.Fprintln(w, "  fredkey chk derive [--algo ctr|pcfb] --headers <file> <datafile>")
	fmt.Fprintln(w, "  fredkey chk verify [--algo ctr|pcfb] --headers <file> --routing-key <base64> <datafile>")
	fmt.Fprintln(w, "  fredkey ssk verify --headers <file> --pubkey <file> --docname-hash <base64> <datafile>")
	fmt.Fprintln(w, "  fredkey cid <file>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - base64 values use the locator alphabet ('~' and '-', no padding)")
	fmt.Fprintln(w, "  - --pubkey takes the serialized DSA public key (four MPI fields)")
	fmt.Fprintln(w, "  - cid prints the CIDv1 (raw + sha2-256) of the file's bytes")
}

func cmdURI(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: fredkey uri <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: parse, normalize")
		return 2
	}
	switch args[0] {
	case "parse":
		fs := flag.NewFlagSet("uri parse", flag.ContinueOnError)
		fs.SetOutput(errOut)
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: fredkey uri parse <locator>")
			return 2
		}
		u, err := keys.ParseURI(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(errOut, "invalid locator: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "type: %s\n", u.KeyType())
		if km := u.KeyMaterial(); km != nil {
			fmt.Fprintf(out, "routing-key: %s\n", keys.EncodeBase64(km.RoutingKey))
			fmt.Fprintf(out, "crypto-key: %s\n", keys.EncodeBase64(km.CryptoKey))
			fmt.Fprintf(out, "extra: %s\n", hex.EncodeToString(km.Extra))
		}
		for _, m := range u.MetaStrings() {
			fmt.Fprintf(out, "meta: %s\n", m)
		}
		fmt.Fprintf(out, "canonical: %s\n", u.String())
		return 0
	case "normalize":
		fs := flag.NewFlagSet("uri normalize", flag.ContinueOnError)
		fs.SetOutput(errOut)
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: fredkey uri normalize <locator>")
			return 2
		}
		u, err := keys.ParseURI(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(errOut, "invalid locator: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(out, u.String())
		return 0
	default:
		fmt.Fprintf(errOut, "unknown uri subcommand: %s\n", args[0])
		return 2
	}
}

func cmdCHK(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: fredkey chk <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: derive, verify")
		return 2
	}
	switch args[0] {
	case "derive":
		fs := flag.NewFlagSet("chk derive", flag.ContinueOnError)
		fs.SetOutput(errOut)
		var headersPath string
		var algoName string
		fs.StringVar(&headersPath, "headers", "", "Block headers file")
		fs.StringVar(&algoName, "algo", "ctr", "Crypto algorithm (ctr or pcfb)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if headersPath == "" || fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: fredkey chk derive [--algo ctr|pcfb] --headers <file> <datafile>")
			return 2
		}
		algo, ok := cryptoAlgo(algoName)
		if !ok {
			fmt.Fprintf(errOut, "unknown algorithm: %s\n", algoName)
			return 2
		}
		headers, data, code := readBlockFiles(headersPath, fs.Arg(0), errOut)
		if code != 0 {
			return code
		}
		b, err := block.DeriveCHKBlock(data, headers, algo)
		if err != nil {
			fmt.Fprintf(errOut, "derive: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "routing-key: %s\n", keys.EncodeBase64(b.RoutingKey()))
		c, err := cidutil.ForBlock(b)
		if err != nil {
			fmt.Fprintf(errOut, "cid: %v\n", err)
			return 1
		}
		fmt.Fprintf(out, "cid: %s\n", c)
		return 0
	case "verify":
		fs := flag.NewFlagSet("chk verify", flag.ContinueOnError)
		fs.SetOutput(errOut)
		var headersPath string
		var routingKey string
		var algoName string
		fs.StringVar(&headersPath, "headers", "", "Block headers file")
		fs.StringVar(&routingKey, "routing-key", "", "Expected routing key (locator base64)")
		fs.StringVar(&algoName, "algo", "ctr", "Crypto algorithm (ctr or pcfb)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		if headersPath == "" || routingKey == "" || fs.NArg() != 1 {
			fmt.Fprintln(errOut, "usage: fredkey chk verify [--algo ctr|pcfb] --headers <file> --routing-key <base64> <datafile>")
			return 2
		}
		algo, ok := cryptoAlgo(algoName)
		if !ok {
			fmt.Fprintf(errOut, "unknown algorithm: %s\n", algoName)
			return 2
		}
		rk, err := keys.DecodeBase64(routingKey)
		if err != nil {
			fmt.Fprintf(errOut, "decode --routing-key: %v\n", err)
			return 2
		}
		key, err := keys.NewNodeCHK(rk, algo)
		if err != nil {
			fmt.Fprintf(errOut, "invalid routing key: %v\n", err)
			return 2
		}
		headers, data, code := readBlockFiles(headersPath, fs.Arg(0), errOut)
		if code != 0 {
			return code
		}
		if _, err := block.NewCHKBlock(data, headers, key); err != nil {
			fmt.Fprintf(errOut, "invalid: %v\n", err)
			return 1
		}
		_, _ = fmt.Fprintln(out, "OK")
		return 0
	default:
		fmt.Fprintf(errOut, "unknown chk subcommand: %s\n", args[0])
		return 2
	}
}

func cmdSSK(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: fredkey ssk <subcommand> ...")
		fmt.Fprintln(errOut, "subcommands: verify")
		return 2
	}
	if args[0] != "verify" {
		fmt.Fprintf(errOut, "unknown ssk subcommand: %s\n", args[0])
		return 2
	}

	fs := flag.NewFlagSet("ssk verify", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var headersPath string
	var pubkeyPath string
	var docnameHash string
	fs.StringVar(&headersPath, "headers", "", "Block headers file")
	fs.StringVar(&pubkeyPath, "pubkey", "", "Serialized DSA public key file")
	fs.StringVar(&docnameHash, "docname-hash", "", "Encrypted hashed docname (locator base64)")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	if headersPath == "" || pubkeyPath == "" || docnameHash == "" || fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: fredkey ssk verify --headers <file> --pubkey <file> --docname-hash <base64> <datafile>")
		return 2
	}

	pubkeyBytes, err := os.ReadFile(pubkeyPath)
	if err != nil {
		fmt.Fprintf(errOut, "read --pubkey: %v\n", err)
		return 1
	}
	pub, err := crypt.ParsePublicKey(pubkeyBytes)
	if err != nil {
		fmt.Fprintf(errOut, "parse public key: %v\n", err)
		return 1
	}
	eh, err := keys.DecodeBase64(docnameHash)
	if err != nil {
		fmt.Fprintf(errOut, "decode --docname-hash: %v\n", err)
		return 2
	}
	key, err := keys.NewNodeSSKFromPubKey(pub, eh, keys.AlgoAESPCFB256SHA256)
	if err != nil {
		fmt.Fprintf(errOut, "invalid key: %v\n", err)
		return 2
	}
	headers, data, code := readBlockFiles(headersPath, fs.Arg(0), errOut)
	if code != 0 {
		return code
	}
	if _, err := block.NewSSKBlock(data, headers, key, true); err != nil {
		fmt.Fprintf(errOut, "invalid: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, "OK")
	return 0
}

func cmdCID(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("cid", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: fredkey cid <file>")
		return 2
	}
	b, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read: %v\n", err)
		return 1
	}
	c := cidutil.ForBytes(b)
	if c == "" {
		fmt.Fprintln(errOut, "failed to compute CID")
		return 1
	}
	_, _ = fmt.Fprintln(out, c)
	return 0
}

func cryptoAlgo(name string) (byte, bool) {
	switch name {
	case "ctr":
		return keys.AlgoAESCTR256SHA256, true
	case "pcfb":
		return keys.AlgoAESPCFB256SHA256, true
	default:
		return 0, false
	}
}

func readBlockFiles(headersPath, dataPath string, errOut io.Writer) (headers, data []byte, code int) {
	headers, err := os.ReadFile(headersPath)
	if err != nil {
		fmt.Fprintf(errOut, "read --headers: %v\n", err)
		return nil, nil, 1
	}
	data, err = os.ReadFile(dataPath)
	if err != nil {
		fmt.Fprintf(errOut, "read data: %v\n", err)
		return nil, nil, 1
	}
	return headers, data, 0
}
