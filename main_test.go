package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/minios-linux/ibkit/config"
	"github.com/minios-linux/ibkit/localize"
	"github.com/minios-linux/ibkit/report"
)

func TestPositional(t *testing.T) {
	tests := []struct {
		args    []string
		project string
		path    string
	}{
		{args: nil},
		{args: []string{"A.xcodeproj"}, project: "A.xcodeproj"},
		{args: []string{"A.xcodeproj", "out"}, project: "A.xcodeproj", path: "out"},
	}
	for _, tc := range tests {
		project, path := positional(tc.args)
		if project != tc.project || path != tc.path {
			t.Fatalf("positional(%v) = %q, %q, want %q, %q", tc.args, project, path, tc.project, tc.path)
		}
	}
}

func TestApplyOverrides(t *testing.T) {
	old := projectFlag
	t.Cleanup(func() { projectFlag = old })

	t.Run("flags and arguments win over config", func(t *testing.T) {
		projectFlag = "Flag.xcodeproj"
		cmd := newExportCmd()
		fs := cmd.Flags()
		if err := cmd.ParseFlags([]string{"--languages", "de,fr", "--jobs", "3", "--exclude", ".plist", "--ib-path", "App"}); err != nil {
			t.Fatalf("ParseFlags: %v", err)
		}

		// The command binds its flags to its own overrides; read them back.
		o := &overrides{path: "translations"}
		o.languages, _ = fs.GetStringSlice("languages")
		o.exclude, _ = fs.GetStringSlice("exclude")
		o.jobs, _ = fs.GetInt("jobs")
		o.ibPath, _ = fs.GetString("ib-path")

		cfg := config.Default()
		cfg.Project = "Config.xcodeproj"
		applyOverrides(fs, cfg, o, xliffDir)

		want := config.Default()
		want.Project = "Flag.xcodeproj"
		want.Languages = []string{"de", "fr"}
		want.ExcludeMarkers = []string{".plist"}
		want.Jobs = 3
		want.IBPath = "App"
		want.XLIFFDir = "translations"
		if diff := cmp.Diff(want, cfg); diff != "" {
			t.Fatalf("applyOverrides() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("positional project beats --project", func(t *testing.T) {
		projectFlag = "Flag.xcodeproj"
		cmd := newImportCmd()
		cfg := config.Default()
		applyOverrides(cmd.Flags(), cfg, &overrides{project: "Arg.xcodeproj"}, xliffDir)
		if cfg.Project != "Arg.xcodeproj" {
			t.Fatalf("Project = %q, want Arg.xcodeproj", cfg.Project)
		}
	})

	t.Run("unset flags keep config values", func(t *testing.T) {
		projectFlag = ""
		cmd := newExportCmd()
		cfg := config.Default()
		cfg.Jobs = 8
		cfg.Languages = []string{"ja"}
		applyOverrides(cmd.Flags(), cfg, &overrides{}, xliffDir)
		if cfg.Jobs != 8 || !cmp.Equal(cfg.Languages, []string{"ja"}) {
			t.Fatalf("config values overridden: jobs=%d languages=%v", cfg.Jobs, cfg.Languages)
		}
	})
}

func TestExportLanguages(t *testing.T) {
	cfg := config.Default()
	cfg.Languages = []string{"pt_BR", "de", "zh-hans"}
	langs, err := exportLanguages(cfg, nil).SupportedLanguages()
	if err != nil {
		t.Fatalf("SupportedLanguages() error: %v", err)
	}
	if diff := cmp.Diff([]string{"pt-BR", "de", "zh-Hans"}, langs); diff != "" {
		t.Fatalf("exportLanguages() mismatch (-want +got):\n%s", diff)
	}

	proj := localize.Languages{"en", "fr"}
	if got := exportLanguages(config.Default(), proj); !cmp.Equal(got, localize.LanguageSource(proj)) {
		t.Fatalf("exportLanguages() = %v, want the project languages", got)
	}
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"export", "import", "strings", "records", "languages", "version"} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("command %q not registered (have %v)", want, names)
		}
	}
}

const pbxproj = `// !$*UTF8*$!
{
	objects = {
		ROOT /* Project object */ = {
			isa = PBXProject;
			knownRegions = (
				en,
				Base,
				de,
			);
		};
	};
	rootObject = ROOT /* Project object */;
}
`

const storyboard = `<?xml version="1.0" encoding="UTF-8"?>
<document type="com.apple.InterfaceBuilder3.CocoaTouch.Storyboard.XIB" version="3.0">
    <scenes>
        <scene sceneID="tne-QT-ifu">
            <objects>
                <viewController id="BYZ-38-t0r" customClass="LoginViewController" sceneMemberID="viewController">
                    <view key="view" id="8bC-Xf-vdC">
                        <subviews>
                            <label text="Welcome" id="F4z-Kg-ni6">
                                <userDefinedRuntimeAttributes>
                                    <userDefinedRuntimeAttribute type="boolean" keyPath="i18n_enabled" value="YES"/>
                                    <userDefinedRuntimeAttribute type="string" keyPath="i18n_comment" value="Welcome text"/>
                                </userDefinedRuntimeAttributes>
                            </label>
                            <switch id="Sw1-aa-bb1">
                                <userDefinedRuntimeAttributes>
                                    <userDefinedRuntimeAttribute type="boolean" keyPath="i18n_enabled" value="NO"/>
                                </userDefinedRuntimeAttributes>
                            </switch>
                        </subviews>
                    </view>
                </viewController>
            </objects>
        </scene>
    </scenes>
</document>
`

// fakeXcodebuild writes a canned export for the requested language.
const fakeXcodebuild = `#!/bin/sh
while [ $# -gt 0 ]; do
  case "$1" in
    -localizationPath) dir="$2"; shift ;;
    -exportLanguage) lang="$2"; shift ;;
  esac
  shift
done
cat > "$dir/$lang.xliff" <<'EOF'
<?xml version="1.0" encoding="UTF-8"?>
<xliff xmlns="urn:oasis:names:tc:xliff:document:1.2" version="1.2">
  <file original="Example/Base.lproj/Main.storyboard" source-language="en" datatype="plaintext">
    <body>
      <trans-unit id="F4z-Kg-ni6.text">
        <source>Welcome</source>
        <note>Class = "UILabel"; text = "Welcome"; ObjectID = "F4z-Kg-ni6";</note>
      </trans-unit>
      <trans-unit id="Sw1-aa-bb1.title">
        <source>On</source>
        <note>Class = "UISwitch"; ObjectID = "Sw1-aa-bb1";</note>
      </trans-unit>
    </body>
  </file>
  <file original="Example/Info.plist" source-language="en" datatype="plaintext">
    <body>
      <trans-unit id="CFBundleName">
        <source>Example</source>
        <note>Bundle name</note>
      </trans-unit>
    </body>
  </file>
</xliff>
EOF
echo "exported $lang"
`

func TestRunExport(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	proj := filepath.Join(dir, "Example.xcodeproj")
	if err := os.MkdirAll(proj, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	write := func(path, content string, mode os.FileMode) {
		t.Helper()
		if err := os.WriteFile(path, []byte(content), mode); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	write(filepath.Join(proj, "project.pbxproj"), pbxproj, 0644)
	write(filepath.Join(dir, "Main.storyboard"), storyboard, 0644)
	tool := filepath.Join(dir, "xcodebuild")
	write(tool, fakeXcodebuild, 0755)

	cfg := config.Default()
	cfg.Project = proj
	cfg.IBPath = filepath.Join(dir, "Main.storyboard")
	cfg.XLIFFDir = filepath.Join(dir, "out")
	cfg.Xcodebuild = tool

	var log bytes.Buffer
	if err := runExport(context.Background(), cfg, report.New(&log, false)); err != nil {
		t.Fatalf("runExport() error: %v\n%s", err, log.String())
	}

	for _, lang := range []string{"en", "de"} {
		data, err := os.ReadFile(filepath.Join(cfg.XLIFFDir, lang+".xliff"))
		if err != nil {
			t.Fatalf("ReadFile(%s): %v", lang, err)
		}
		got := string(data)
		if !strings.Contains(got, "<note>LoginViewController label Welcome text</note>") {
			t.Fatalf("%s: note not updated:\n%s", lang, got)
		}
		if strings.Contains(got, "Sw1-aa-bb1") || strings.Contains(got, "Info.plist") {
			t.Fatalf("%s: disabled unit or plist group kept:\n%s", lang, got)
		}
	}
	if !strings.Contains(log.String(), "[OK] Done exporting XLIFFs") {
		t.Fatalf("missing summary line:\n%s", log.String())
	}
}

func TestRunExportFailureIsReported(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	proj := filepath.Join(dir, "Example.xcodeproj")
	if err := os.MkdirAll(proj, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(proj, "project.pbxproj"), []byte(pbxproj), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Main.storyboard"), []byte(storyboard), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	tool := filepath.Join(dir, "xcodebuild")
	if err := os.WriteFile(tool, []byte("#!/bin/sh\necho 'xcodebuild: error: broken' >&2\nexit 70\n"), 0755); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := config.Default()
	cfg.Project = proj
	cfg.IBPath = dir
	cfg.XLIFFDir = filepath.Join(dir, "out")
	cfg.Xcodebuild = tool

	var log bytes.Buffer
	err := runExport(context.Background(), cfg, report.New(&log, false))
	if !errors.Is(err, errReported) {
		t.Fatalf("runExport() error = %v, want errReported", err)
	}
	if !strings.Contains(log.String(), "2 of 2 languages failed: en, de") {
		t.Fatalf("missing failure summary:\n%s", log.String())
	}
}
