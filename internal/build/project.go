package build

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

const (
	pmNPM  = "npm"
	pmYarn = "yarn"
	pmPNPM = "pnpm"
)

// openNextPackages are checked in order when reporting the OpenNext adapter
// version; projects declare one of them depending on the adapter generation.
var openNextPackages = []string{"@opennextjs/aws", "open-next"}

type manifest struct {
	Name            string            `json:"name"`
	PackageManager  string            `json:"packageManager"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	Scripts         map[string]string `json:"scripts"`
}

func (m *manifest) dependencyVersion(name string) string {
	if m == nil {
		return ""
	}
	if v, ok := m.Dependencies[name]; ok {
		return strings.TrimSpace(v)
	}
	if v, ok := m.DevDependencies[name]; ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func (m *manifest) hasDependency(name string) bool {
	return m.dependencyVersion(name) != ""
}

func loadManifest(dir string) (*manifest, bool) {
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return nil, false
	}
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false
	}
	if m.Dependencies == nil {
		m.Dependencies = map[string]string{}
	}
	if m.DevDependencies == nil {
		m.DevDependencies = map[string]string{}
	}
	if m.Scripts == nil {
		m.Scripts = map[string]string{}
	}
	return &m, true
}

func isNextProject(m *manifest) bool {
	if m == nil {
		return false
	}
	if m.hasDependency("next") {
		return true
	}
	for _, script := range m.Scripts {
		if strings.Contains(strings.ToLower(script), "next") {
			return true
		}
	}
	return false
}

func detectPackageManager(dir string) string {
	if m, ok := loadManifest(dir); ok {
		if parsed := parsePackageManager(m.PackageManager); parsed != "" {
			return parsed
		}
	}
	switch {
	case fileExists(filepath.Join(dir, "yarn.lock")):
		return pmYarn
	case fileExists(filepath.Join(dir, "pnpm-lock.yaml")):
		return pmPNPM
	default:
		return pmNPM
	}
}

func parsePackageManager(value string) string {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return ""
	}
	if idx := strings.Index(trimmed, "@"); idx > 0 {
		trimmed = trimmed[:idx]
	}
	switch trimmed {
	case pmYarn, pmPNPM, pmNPM:
		return trimmed
	default:
		return ""
	}
}

func defaultBuildCommand(pm string) string {
	switch pm {
	case pmYarn:
		return "yarn build"
	case pmPNPM:
		return "pnpm build"
	default:
		return "npm run build"
	}
}

// installedVersion reads the resolved version of a package from its
// node_modules manifest. Returns empty when the package is not installed.
func installedVersion(projectDir, name string) string {
	path := filepath.Join(projectDir, "node_modules", filepath.FromSlash(name), "package.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	var payload struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Version)
}

// packageVersion prefers the installed version over the declared range so
// the reported toolchain version matches what actually ran.
func packageVersion(projectDir string, m *manifest, name string) string {
	if v := installedVersion(projectDir, name); v != "" {
		return v
	}
	return strings.TrimLeft(m.dependencyVersion(name), "^~>= v")
}

func openNextVersion(projectDir string, m *manifest) string {
	for _, name := range openNextPackages {
		if !m.hasDependency(name) && installedVersion(projectDir, name) == "" {
			continue
		}
		if v := packageVersion(projectDir, m, name); v != "" {
			return v
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
