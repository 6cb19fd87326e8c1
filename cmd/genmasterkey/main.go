package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"conduit/internal/crypto"
	"conduit/internal/utils"
)

// TODO(tool-genmasterkey-rotate): re-seal the stored viewer under the new key instead of
// refusing to overwrite.

func main() {
	keyFile := flag.String("out", filepath.Join(utils.GetDataDir(), "master.key"), "Where to write the hex master key")
	flag.Parse()

	if _, err := os.Stat(*keyFile); err == nil {
		fmt.Fprintf(os.Stderr, "Error: %s already exists. Refusing to overwrite.\n", *keyFile)
		os.Exit(1)
	}
	if err := os.MkdirAll(filepath.Dir(*keyFile), 0700); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating %s: %v\n", filepath.Dir(*keyFile), err)
		os.Exit(1)
	}
	hexKey := hex.EncodeToString(crypto.GenerateMasterKey())
	if err := os.WriteFile(*keyFile, []byte(hexKey+"\n"), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *keyFile, err)
		os.Exit(1)
	}
	fmt.Printf("Master key written to %s\n", *keyFile)
	fmt.Printf("Set \"encryptStorage\": true in config.json or export %s to use it.\n", crypto.MasterKeyEnv)
}
