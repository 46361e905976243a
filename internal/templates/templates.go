package templates

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"text/template"

	"github.com/oshokin/modbuilder/internal/domain/module"
)

const (
	leftDelim  = "<%"
	rightDelim = "%>"

	// regularMode is the mode of generated data files.
	regularMode os.FileMode = 0o644
	// scriptMode is the mode of generated scripts.
	scriptMode os.FileMode = 0o755
)

// ErrUnknownFile is returned by Lookup callers when a name matches no generated file.
var ErrUnknownFile = errors.New("unknown generated file")

// Data is what the template bodies can reference.
type Data struct {
	Package module.Package
	Service module.Service
	// BinaryPath is the daemon path relative to the module root, slash separated.
	BinaryPath string
	// PermissionDirs are the system/ subtrees customize.sh resets.
	PermissionDirs []string
}

// NewData builds template data from the module settings.
func NewData(pkg module.Package, svc module.Service) Data {
	return Data{
		Package:        pkg,
		Service:        svc,
		BinaryPath:     svc.BinaryPath(),
		PermissionDirs: module.PermissionDirs(),
	}
}

// File is one generated file of the module.
type File struct {
	// Name is the short name used by the CLI and in logs.
	Name string
	// Path is the slash-separated location relative to the staging root.
	Path string
	// Mode is the permission the file is written with.
	Mode os.FileMode

	tmpl *template.Template
}

// Render expands the file body for data.
func (f *File) Render(data Data) ([]byte, error) {
	var buf bytes.Buffer

	if err := f.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", f.Name, err)
	}

	return buf.Bytes(), nil
}

// Executable reports whether the file is written with execute permission.
func (f *File) Executable() bool {
	return f.Mode&0o111 != 0
}

//nolint:gochecknoglobals // Parsed once, read-only afterwards.
var files = []File{
	newFile("module.prop", "module.prop", regularMode, modulePropBody),
	newFile("update-binary", "META-INF/com/google/android/update-binary", scriptMode, updateBinaryBody),
	newFile("updater-script", "META-INF/com/google/android/updater-script", regularMode, updaterScriptBody),
	newFile("sepolicy.rule", "sepolicy.rule", regularMode, sepolicyRuleBody),
	newFile("service.sh", "service.sh", scriptMode, serviceShBody),
	newFile("customize.sh", "customize.sh", scriptMode, customizeShBody),
}

func newFile(name, path string, mode os.FileMode, body string) File {
	tmpl := template.Must(
		template.New(name).
			Delims(leftDelim, rightDelim).
			Option("missingkey=error").
			Parse(body),
	)

	return File{
		Name: name,
		Path: path,
		Mode: mode,
		tmpl: tmpl,
	}
}

// Files returns every generated file in emission order.
func Files() []File {
	return append([]File(nil), files...)
}

// Lookup finds a generated file by short name or by path.
func Lookup(name string) (File, error) {
	for _, f := range files {
		if f.Name == name || f.Path == name {
			return f, nil
		}
	}

	return File{}, fmt.Errorf("%s: %w", name, ErrUnknownFile)
}
