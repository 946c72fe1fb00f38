package security

import (
	"path/filepath"
	"slices"
)

// Rules holds the safety tables consulted by the Classifier. A Rules value
// is built once at startup and never mutated; With returns a copy.
type Rules struct {
	// Blocked entries protect themselves and everything beneath them.
	Blocked []string
	// Personal entries hold user documents; eligible only with consent.
	Personal []string
	// Exact entries are refused as targets, but their children are not.
	Exact []string
	// CaseInsensitive folds case before comparing (default macOS volumes).
	CaseInsensitive bool
}

// DefaultRules returns the built-in tables for the given home directory
// and GOOS value.
func DefaultRules(home, goos string) Rules {
	r := Rules{
		Exact: []string{"/"},
	}
	if home != "" {
		r.Exact = append(r.Exact, home)
	}

	userBlocked := []string{
		".ssh",
		".gnupg",
		filepath.Join(".config", "safeclean"),
	}

	switch goos {
	case "darwin":
		r.CaseInsensitive = true
		r.Blocked = []string{
			"/System",
			"/Applications",
			"/bin",
			"/sbin",
			"/usr/bin",
			"/usr/sbin",
			"/usr/lib",
			"/usr/libexec",
			"/usr/share",
			"/Library",
			"/private",
			"/var",
			"/etc",
			"/tmp",
			"/dev",
			"/proc",
			"/cores",
		}
		userBlocked = append(userBlocked,
			filepath.Join("Library", "Application Support", "com.apple"),
			filepath.Join("Library", "Keychains"),
			filepath.Join("Library", "Mail"),
			filepath.Join("Library", "Messages"),
			filepath.Join("Library", "Calendars"),
			filepath.Join("Library", "Contacts"),
			filepath.Join("Library", "Safari"),
		)
		r.Personal = homeJoin(home,
			"Documents",
			"Desktop",
			"Pictures",
			"Movies",
			"Music",
			filepath.Join("Library", "Mobile Documents"),
		)
	default:
		r.Blocked = []string{
			"/bin",
			"/boot",
			"/dev",
			"/etc",
			"/lib",
			"/lib32",
			"/lib64",
			"/opt",
			"/proc",
			"/root",
			"/run",
			"/sbin",
			"/snap",
			"/srv",
			"/sys",
			"/tmp",
			"/usr",
			"/var",
		}
		userBlocked = append(userBlocked,
			filepath.Join(".local", "share", "keyrings"),
			".mozilla",
			".thunderbird",
		)
		r.Personal = homeJoin(home,
			"Documents",
			"Desktop",
			"Pictures",
			"Videos",
			"Music",
		)
	}

	r.Blocked = append(r.Blocked, homeJoin(home, userBlocked...)...)
	return r
}

// With returns a copy of r with extra blocked and personal entries added.
func (r Rules) With(blocked, personal []string) Rules {
	out := Rules{
		Blocked:         slices.Concat(r.Blocked, blocked),
		Personal:        slices.Concat(r.Personal, personal),
		Exact:           slices.Clone(r.Exact),
		CaseInsensitive: r.CaseInsensitive,
	}
	return out
}

func homeJoin(home string, rel ...string) []string {
	if home == "" {
		return nil
	}
	out := make([]string, 0, len(rel))
	for _, p := range rel {
		out = append(out, filepath.Join(home, p))
	}
	return out
}
