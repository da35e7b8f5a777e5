package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("SENTRA_TEST_MODE") == "" {
			_ = os.Setenv("SENTRA_TEST_MODE", "1")
		}
	})
}
