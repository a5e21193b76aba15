// Copyright (C) 2021-2022  Ambassador Labs
//
// SPDX-License-Identifier: Apache-2.0

package depindex

import "strings"

// Kind distinguishes the two dependency-declaration maps a manifest carries.
type Kind string

const (
	KindDep Kind = "dep"
	KindDev Kind = "dev"
)

const (
	prefixPkg           = "!pkg!"
	prefixPkgLatest     = "!pkg-latest!"
	prefixLatestVersion = "!latest-version!"
	prefixIndex         = "!index!"
	prefixIndexLatest   = "!index-latest!"
)

// escapeName makes a package or dependency name safe to embed in a key: the
// two characters the key schema uses as delimiters ('!', '@') and the escape
// character '%' itself are percent-escaped, so the result is guaranteed free of them and the escaping
// is unambiguously reversible (prefix-free against '!').
func escapeName(name string) string {
	r := strings.NewReplacer("%", "%25", "!", "%21", "@", "%40")
	return r.Replace(name)
}

func unescapeName(escaped string) string {
	r := strings.NewReplacer("%40", "@", "%21", "!", "%25", "%")
	return r.Replace(escaped)
}

// keyPkg is the manifest-by-version key: !pkg!<name>@<version>.
func keyPkg(name, version string) []byte {
	return []byte(prefixPkg + escapeName(name) + "@" + version)
}

// keyPkgLatest is the latest-manifest key: !pkg-latest!<name>.
func keyPkgLatest(name string) []byte {
	return []byte(prefixPkgLatest + escapeName(name))
}

// keyLatestVersion is the latest-version-pointer key: !latest-version!<name>.
func keyLatestVersion(name string) []byte {
	return []byte(prefixLatestVersion + escapeName(name))
}

// keyIndex is the per-version forward index key:
// !index!<kind>!<dep>!<dependent>@<version>.
func keyIndex(kind Kind, dep, dependent, version string) []byte {
	return []byte(prefixIndex + string(kind) + "!" + escapeName(dep) + "!" + escapeName(dependent) + "@" + version)
}

// keyIndexLatest is the latest forward index key:
// !index-latest!<kind>!<dep>!<dependent>.
func keyIndexLatest(kind Kind, dep, dependent string) []byte {
	return []byte(prefixIndexLatest + string(kind) + "!" + escapeName(dep) + "!" + escapeName(dependent))
}

// indexScanPrefix is the shared prefix of every per-version index key for
// (kind, dep): !index!<kind>!<dep>!
func indexScanPrefix(kind Kind, dep string) string {
	return prefixIndex + string(kind) + "!" + escapeName(dep) + "!"
}

// indexLatestScanPrefix is the shared prefix of every latest index key for
// (kind, dep): !index-latest!<kind>!<dep>!
func indexLatestScanPrefix(kind Kind, dep string) string {
	return prefixIndexLatest + string(kind) + "!" + escapeName(dep) + "!"
}

// splitIndexKey extracts the dependent name and version from a per-version
// index key, given the scan prefix that produced it.
func splitIndexKey(prefix string, key []byte) (dependent, version string, ok bool) {
	s := string(key)
	if !strings.HasPrefix(s, prefix) {
		return "", "", false
	}
	rest := s[len(prefix):]
	at := strings.LastIndexByte(rest, '@')
	if at < 0 {
		return "", "", false
	}
	return unescapeName(rest[:at]), rest[at+1:], true
}

// splitIndexLatestKey extracts the dependent name from a latest index key,
// given the scan prefix that produced it.
func splitIndexLatestKey(prefix string, key []byte) (dependent string, ok bool) {
	s := string(key)
	if !strings.HasPrefix(s, prefix) {
		return "", false
	}
	return unescapeName(s[len(prefix):]), true
}
