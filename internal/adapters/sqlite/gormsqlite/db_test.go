package gormsqlite

import (
	"strings"
	"testing"
)

func TestBuildDSNCarriesPerConnectionPragmas(t *testing.T) {
	for _, pragma := range []string{
		"_pragma=journal_mode(WAL)",
		"_pragma=synchronous(NORMAL)",
		"_pragma=temp_store(MEMORY)",
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_pragma=trusted_schema(OFF)",
	} {
		if dsn := buildDSN("./counters.sqlite", true); !strings.Contains(dsn, pragma) {
			t.Errorf("reader dsn missing %q: %s", pragma, dsn)
		}
		if dsn := buildDSN("./counters.sqlite", false); !strings.Contains(dsn, pragma) {
			t.Errorf("writer dsn missing %q: %s", pragma, dsn)
		}
	}
}

func TestBuildDSNReadOnlyFlag(t *testing.T) {
	if dsn := buildDSN("./counters.sqlite", true); !strings.Contains(dsn, "_pragma=query_only(1)") {
		t.Fatalf("reader dsn not query_only: %s", dsn)
	}
	if dsn := buildDSN("./counters.sqlite", false); !strings.Contains(dsn, "_pragma=query_only(0)") {
		t.Fatalf("writer dsn is query_only: %s", dsn)
	}
}
