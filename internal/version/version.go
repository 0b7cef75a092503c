package version

import "fmt"

// Заполняются при сборке через -ldflags "-X .../internal/version.version=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GetVersion возвращает версию сборки.
func GetVersion() string { return version }

// GetCommit возвращает commit сборки.
func GetCommit() string { return commit }

// GetDate возвращает дату сборки.
func GetDate() string { return date }

// UserAgent - значение User-Agent для запросов синхронизации: "<app>/<version>".
func UserAgent(app string) string {
	return fmt.Sprintf("%s/%s", app, version)
}
