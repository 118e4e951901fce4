package config

import (
	"fmt"
	"os"
)

func Template() string {
	return accountTemplate
}

// WriteTemplate writes a starter account file to path.
func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(accountTemplate), 0o600)
}

const accountTemplate = `server = 36

[cookies]
PHPSESSID = ""
pvz_youkia = ""

[client]
timeout = "30s"
flash_version = "34,0,0,192"
min_pause = "800ms"
max_pause = "1400ms"
max_response_bytes = 8388608
`
