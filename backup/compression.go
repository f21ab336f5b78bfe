package backup

import (
	"fmt"
	"strings"

	"github.com/kjk/flatstore/u"
)

// Compression is the compression of snapshot files
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
	Brotli
)

var compressionNames = []string{"none", "gzip", "zstd", "brotli"}
var compressionExts = []string{"", u.ExtGzip, u.ExtZstd, u.ExtBrotli}

func (c Compression) String() string {
	if c < None || c > Brotli {
		return fmt.Sprintf("Compression(%d)", int(c))
	}
	return compressionNames[c]
}

// Ext returns the suffix added to snapshot file names
func (c Compression) Ext() string {
	if c < None || c > Brotli {
		return ""
	}
	return compressionExts[c]
}

// ParseCompression accepts a name ("zstd") or an extension (".zstd", "gz")
func ParseCompression(s string) (Compression, error) {
	s = strings.ToLower(s)
	switch s {
	case "", "none":
		return None, nil
	case "gz":
		return Gzip, nil
	case "br":
		return Brotli, nil
	}
	for i, name := range compressionNames {
		if s == name || (i > 0 && s == compressionExts[i]) {
			return Compression(i), nil
		}
	}
	return None, fmt.Errorf("unknown compression '%s'", s)
}

// compressionOf returns compression of a file based on its name
func compressionOf(name string) Compression {
	lower := strings.ToLower(name)
	for i := Brotli; i > None; i-- {
		if strings.HasSuffix(lower, i.Ext()) {
			return i
		}
	}
	return None
}
