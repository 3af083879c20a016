package project

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/pr1metine/ls-ccsc/internal/diagnostics"
	"github.com/pr1metine/ls-ccsc/internal/document"
)

var logger = commonlog.GetLoggerf("ls-ccsc.project")

// sourceExtensions are the extensions recognized for a Source document
// (spec §6 "Source file extensions recognized"), case-sensitive.
var sourceExtensions = map[string]bool{
	".c":   true,
	".cpp": true,
	".h":   true,
}

// Index is the DocumentIndex of spec §3: a mapping from absolute path to
// DocumentType. Built fresh at initialize; ServerCore mutates it in place
// for edit events and clears it at shutdown.
type Index map[string]document.Type

// BuildIndex implements the Indexer contract of spec §4.7: for every entry
// in cfg.Files, read the file (unless generated/other), classify it, and
// collect the result into an Index. Later duplicate relative paths (two MCP
// keys resolving to the same absolute path) overwrite earlier entries, as
// FILE_INFO keys are iterated in no guaranteed order.
func BuildIndex(cfg *Config, rootPath string, parser *document.SharedParser) Index {
	idx := make(Index, len(cfg.Files))

	indexed, skipped := 0, 0
	for _, entry := range cfg.Files {
		absPath := filepath.Join(rootPath, entry.RelativePath)
		toBeIgnored := entry.IsGenerated || entry.IsOther

		if toBeIgnored || !sourceExtensions[filepath.Ext(absPath)] {
			idx[absPath] = document.Ignored()
			continue
		}

		raw, err := os.ReadFile(absPath)
		if err != nil {
			logger.Warningf("skipping unreadable source file %q: %v", absPath, err)
			skipped++
			continue
		}

		doc, err := document.New(absPath, raw, parser)
		if err != nil {
			logger.Warningf("initial parse of %q failed, tracking it as ignored: %v", absPath, err)
			idx[absPath] = document.Ignored()
			continue
		}
		idx[absPath] = document.Source(doc)
		indexed++
	}

	logger.Infof("indexed %d source documents, skipped %d unreadable files, %d tracked entries total", indexed, skipped, len(idx))
	return idx
}

// DiscoverErrFiles walks rootPath (recursively, since *.err files may be
// nested under a build output directory) collecting every *.err path, for
// the initial compiler-diagnostic seeding step of spec §4.7.
func DiscoverErrFiles(rootPath string) []string {
	var found []string
	err := filepath.WalkDir(rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && filepath.Ext(path) == ".err" {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		logger.Warningf("error walking %q for *.err files: %v", rootPath, err)
	}
	sort.Strings(found)
	return found
}

// IngestErrFiles implements the ingestion side-effects of spec §4.5: clear
// every tracked Source document's compilerDiags, then for each (path,
// diagnostics) pair produced by the given *.err files, set the diagnostics
// on the matching Source entry (inserting it as Ignored first if the path
// isn't already tracked). Returns the aggregate mapping keyed by absolute
// path for ServerCore to translate into URIs and publish.
func IngestErrFiles(idx Index, errPaths []string) map[string][]protocol.Diagnostic {
	for _, entry := range idx {
		if entry.IsSource() {
			entry.Doc.SetCompilerDiagnostics(nil)
		}
	}

	aggregate := make(map[string][]protocol.Diagnostic)
	for _, errPath := range errPaths {
		byPath, err := diagnostics.ParseFile(errPath)
		if err != nil {
			logger.Warningf("skipping unreadable *.err file %q: %v", errPath, err)
			continue
		}
		for path, diags := range byPath {
			aggregate[path] = append(aggregate[path], diags...)

			entry, tracked := idx[path]
			if !tracked {
				entry = document.Ignored()
				idx[path] = entry
			}
			if entry.IsSource() {
				entry.Doc.SetCompilerDiagnostics(aggregate[path])
			}
		}
	}
	return aggregate
}
