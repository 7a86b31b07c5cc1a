package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
	"gopkg.in/yaml.v3"

	"github.com/calvinalkan/scandir"
)

func execute(args ...string) (string, string, error) {
	cmd := NewRootCommand()

	var stdout, stderr bytes.Buffer

	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())

	return stdout.String(), stderr.String(), err
}

// makeTree creates:
//
//	root/.hidden
//	root/a.txt ("hello")
//	root/b.txt
//	root/sub/c.txt
//	root/sub/deeper/d.txt
func makeTree(t *testing.T) string {
	t.Helper()

	root := t.TempDir()

	files := map[string]string{
		".hidden":                               "",
		"a.txt":                                 "hello",
		"b.txt":                                 "",
		filepath.Join("sub", "c.txt"):           "",
		filepath.Join("sub", "deeper", "d.txt"): "",
	}

	for rel, content := range files {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatal(err)
		}

		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	return root
}

func textRows(out string) [][]string {
	var rows [][]string

	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line != "" {
			rows = append(rows, strings.Fields(line))
		}
	}

	return rows
}

func decodeLevelsJSON(t *testing.T, out string) []levelRecord {
	t.Helper()

	var levels []levelRecord

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var rec levelRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("decode %q: %v", sc.Text(), err)
		}

		levels = append(levels, rec)
	}

	return levels
}

func TestLs_Text_ListsSortedEntriesWithKinds(t *testing.T) {
	g := NewWithT(t)
	root := makeTree(t)

	stdout, _, err := execute("ls", root)
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(textRows(stdout)).To(Equal([][]string{
		{"file", ".hidden"},
		{"file", "a.txt"},
		{"file", "b.txt"},
		{"dir", "sub"},
	}))
}

func TestLs_JSON_DecodesToRecords(t *testing.T) {
	g := NewWithT(t)
	root := makeTree(t)

	stdout, _, err := execute("ls", "--format", "json", root)
	g.Expect(err).NotTo(HaveOccurred())

	var records []entryRecord
	g.Expect(json.Unmarshal([]byte(stdout), &records)).To(Succeed())

	g.Expect(records).To(HaveLen(4))
	g.Expect(records[3]).To(Equal(entryRecord{Name: "sub", Kind: "dir"}))
}

func TestLs_LongYAML_IncludesStatus(t *testing.T) {
	g := NewWithT(t)
	root := makeTree(t)

	stdout, _, err := execute("ls", "-l", "--format", "yaml", "--include", "a.txt", root)
	g.Expect(err).NotTo(HaveOccurred())

	var records []entryRecord
	g.Expect(yaml.Unmarshal([]byte(stdout), &records)).To(Succeed())

	g.Expect(records).To(HaveLen(1))
	g.Expect(records[0].Name).To(Equal("a.txt"))
	g.Expect(records[0].Kind).To(Equal("file"))
	g.Expect(records[0].Size).To(Equal(int64(5)))
	g.Expect(records[0].Mode).To(HavePrefix("-"))
	g.Expect(records[0].ModTime).NotTo(BeEmpty())
}

func TestLs_Long_ShowsSymlinkTarget(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks unreliable on windows")
	}

	g := NewWithT(t)
	root := makeTree(t)
	g.Expect(os.Symlink("a.txt", filepath.Join(root, "link"))).To(Succeed())

	stdout, _, err := execute("ls", "-l", "--format", "json", "--include", "link", root)
	g.Expect(err).NotTo(HaveOccurred())

	var records []entryRecord
	g.Expect(json.Unmarshal([]byte(stdout), &records)).To(Succeed())

	g.Expect(records).To(HaveLen(1))
	g.Expect(records[0].Kind).To(Equal("symlink"))
	g.Expect(records[0].Target).To(Equal("a.txt"))
}

func TestLs_IncludeExclude_FilterNames(t *testing.T) {
	g := NewWithT(t)
	root := makeTree(t)

	stdout, _, err := execute("ls", "--include", "*.txt", "--exclude", "b.*", root)
	g.Expect(err).NotTo(HaveOccurred())

	g.Expect(textRows(stdout)).To(Equal([][]string{{"file", "a.txt"}}))
}

func TestLs_EmptyDirectory_JSONIsEmptyArray(t *testing.T) {
	g := NewWithT(t)

	stdout, _, err := execute("ls", "--format", "json", t.TempDir())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(strings.TrimSpace(stdout)).To(Equal("[]"))
}

func TestLs_MissingPath_ReturnsNotFound(t *testing.T) {
	g := NewWithT(t)

	_, _, err := execute("ls", filepath.Join(t.TempDir(), "missing"))
	g.Expect(err).To(HaveOccurred())
	g.Expect(errors.Is(err, scandir.ErrNotFound)).To(BeTrue())
	g.Expect(ExitCode(err)).To(Equal(ExitError))
}

func TestLs_UsageErrors_MapToExitUsage(t *testing.T) {
	cases := [][]string{
		{"ls", "a", "b"},
		{"ls", "--format", "xml", "."},
		{"ls", "--bogus"},
		{"ls", "--include", "[unclosed", "."},
		{"frob"},
	}

	for _, args := range cases {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			g := NewWithT(t)

			_, _, err := execute(args...)
			g.Expect(err).To(HaveOccurred())
			g.Expect(ExitCode(err)).To(Equal(ExitUsage))
		})
	}
}

func TestLs_Verbose_LogsConfig(t *testing.T) {
	g := NewWithT(t)

	_, stderr, err := execute("ls", "-v", t.TempDir())
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(stderr).To(ContainSubstring("[VERBOSE] config: format=text"))
}

func TestLs_ConfigFile_SetsDefaultFormat_AndFlagOverrides(t *testing.T) {
	g := NewWithT(t)
	root := makeTree(t)

	cfgPath := filepath.Join(t.TempDir(), "scandir.yaml")
	g.Expect(os.WriteFile(cfgPath, []byte("format: json\nexclude: [\"*.txt\"]\n"), 0o600)).To(Succeed())

	stdout, _, err := execute("ls", "--config", cfgPath, root)
	g.Expect(err).NotTo(HaveOccurred())

	var records []entryRecord
	g.Expect(json.Unmarshal([]byte(stdout), &records)).To(Succeed())
	g.Expect(records).To(HaveLen(2))

	stdout, _, err = execute("ls", "--config", cfgPath, "--format", "text", "--exclude", "sub", root)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(textRows(stdout)).To(HaveLen(3))
}

func TestLs_MissingExplicitConfig_IsUsageError(t *testing.T) {
	g := NewWithT(t)

	_, _, err := execute("ls", "--config", filepath.Join(t.TempDir(), "nope.yaml"), ".")
	g.Expect(err).To(HaveOccurred())
	g.Expect(ExitCode(err)).To(Equal(ExitUsage))
}

func TestWalk_Text_PrintsOneBlockPerDirectory(t *testing.T) {
	g := NewWithT(t)
	root := makeTree(t)

	stdout, _, err := execute("walk", root)
	g.Expect(err).NotTo(HaveOccurred())

	sep := string(filepath.Separator)
	want := strings.Join([]string{
		root,
		"  sub" + sep,
		"  .hidden",
		"  a.txt",
		"  b.txt",
		filepath.Join(root, "sub"),
		"  deeper" + sep,
		"  c.txt",
		filepath.Join(root, "sub", "deeper"),
		"  d.txt",
	}, "\n") + "\n"

	g.Expect(stdout).To(Equal(want))
}

func TestWalk_JSON_ExcludePrunesSubtree(t *testing.T) {
	g := NewWithT(t)
	root := makeTree(t)

	stdout, _, err := execute("walk", "--format", "json", "--exclude", "deeper", "--exclude", "b.txt", root)
	g.Expect(err).NotTo(HaveOccurred())

	levels := decodeLevelsJSON(t, stdout)
	g.Expect(levels).To(Equal([]levelRecord{
		{Path: root, Dirs: []string{"sub"}, Files: []string{".hidden", "a.txt"}},
		{Path: filepath.Join(root, "sub"), Dirs: []string{}, Files: []string{"c.txt"}},
	}))
}

func TestWalk_Gitignore_SkipsIgnoredPaths(t *testing.T) {
	g := NewWithT(t)
	root := makeTree(t)

	g.Expect(os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.log\nbuild/\n"), 0o600)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(root, "debug.log"), nil, 0o600)).To(Succeed())
	g.Expect(os.MkdirAll(filepath.Join(root, "build"), 0o750)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(root, "build", "out.bin"), nil, 0o600)).To(Succeed())

	stdout, _, err := execute("walk", "--format", "json", "--max-depth", "1", "--gitignore", root)
	g.Expect(err).NotTo(HaveOccurred())

	levels := decodeLevelsJSON(t, stdout)
	g.Expect(levels).To(HaveLen(2))
	g.Expect(levels[0]).To(Equal(levelRecord{
		Path:  root,
		Dirs:  []string{"sub"},
		Files: []string{".gitignore", ".hidden", "a.txt", "b.txt"},
	}))
	g.Expect(levels[1].Path).To(Equal(filepath.Join(root, "sub")))

	stdout, _, err = execute("walk", "--format", "json", "--max-depth", "1", root)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(decodeLevelsJSON(t, stdout)[0].Dirs).To(Equal([]string{"build", "sub"}))
}

func TestWalk_Gitignore_MissingFileIsNotAnError(t *testing.T) {
	g := NewWithT(t)
	root := makeTree(t)

	_, _, err := execute("walk", "--gitignore", "--max-depth", "1", root)
	g.Expect(err).NotTo(HaveOccurred())
}

func TestWalk_MaxDepth_LimitsLevels(t *testing.T) {
	g := NewWithT(t)
	root := makeTree(t)

	stdout, _, err := execute("walk", "--format", "json", "--max-depth", "1", root)
	g.Expect(err).NotTo(HaveOccurred())

	levels := decodeLevelsJSON(t, stdout)
	g.Expect(levels).To(HaveLen(2))
	g.Expect(levels[1].Dirs).To(Equal([]string{"deeper"}))
}

func TestWalk_PostOrder_YieldsRootLast(t *testing.T) {
	g := NewWithT(t)
	root := makeTree(t)

	stdout, _, err := execute("walk", "--format", "yaml", "--post-order", root)
	g.Expect(err).NotTo(HaveOccurred())

	var paths []string

	dec := yaml.NewDecoder(strings.NewReader(stdout))

	for {
		var rec levelRecord

		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			break
		}

		g.Expect(err).NotTo(HaveOccurred())

		paths = append(paths, rec.Path)
	}

	g.Expect(paths).To(Equal([]string{
		filepath.Join(root, "sub", "deeper"),
		filepath.Join(root, "sub"),
		root,
	}))
}

func TestWalk_UnreadableSubtree_LogsAndFails(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("needs chmod 000 to deny access")
	}

	g := NewWithT(t)
	root := makeTree(t)

	blocked := filepath.Join(root, "sub", "deeper")
	g.Expect(os.Chmod(blocked, 0)).To(Succeed())
	t.Cleanup(func() { _ = os.Chmod(blocked, 0o750) })

	stdout, stderr, err := execute("walk", "--format", "json", root)
	g.Expect(err).To(MatchError(ContainSubstring("1 directory could not be read")))
	g.Expect(ExitCode(err)).To(Equal(ExitError))
	g.Expect(stderr).To(ContainSubstring("[ERROR] open " + blocked))
	g.Expect(decodeLevelsJSON(t, stdout)).To(HaveLen(2))
}

func TestWalk_CanceledContext_ReturnsError(t *testing.T) {
	g := NewWithT(t)
	root := makeTree(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := NewRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"walk", root})

	err := cmd.ExecuteContext(ctx)
	g.Expect(errors.Is(err, context.Canceled)).To(BeTrue())
}

func TestBench_GeneratesTreeAndWritesJSONL(t *testing.T) {
	g := NewWithT(t)

	root := filepath.Join(t.TempDir(), "tree")
	out := filepath.Join(t.TempDir(), "results.jsonl")

	stdout, _, err := execute("bench", "--generate", "30", "--fanout", "3", "--depth", "2",
		"--repeat", "2", "--out", out, "--case", "small", "-q", root)
	g.Expect(err).NotTo(HaveOccurred())

	_, parseErr := strconv.ParseFloat(strings.TrimSpace(stdout), 64)
	g.Expect(parseErr).NotTo(HaveOccurred())

	data, err := os.ReadFile(out)
	g.Expect(err).NotTo(HaveOccurred())

	var results []benchResult

	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var res benchResult
		g.Expect(json.Unmarshal([]byte(line), &res)).To(Succeed())

		results = append(results, res)
	}

	g.Expect(results).To(HaveLen(3))
	g.Expect(results[0].Impl).To(Equal(implScandir))
	g.Expect(results[1].Impl).To(Equal(implStdlib))
	g.Expect(results[2].Impl).To(Equal(implKrfs))

	// 30 files in 9 leaf dirs under 3 intermediate dirs.
	for _, res := range results {
		g.Expect(res.RunID).NotTo(BeEmpty())
		g.Expect(res.RunID).To(Equal(results[0].RunID))
		g.Expect(res.Case).To(Equal("small"))
		g.Expect(res.Repeat).To(Equal(2))
		g.Expect(res.Dirs).To(Equal(uint64(13)))
		g.Expect(res.Entries).To(Equal(uint64(30 + 12)))
	}
}

func TestBench_FollowLinks_SkipsKrfs(t *testing.T) {
	g := NewWithT(t)

	root := filepath.Join(t.TempDir(), "tree")
	out := filepath.Join(t.TempDir(), "results.jsonl")

	_, _, err := execute("bench", "--generate", "5", "--depth", "1", "--follow-links", "--out", out, "-q", root)
	g.Expect(err).NotTo(HaveOccurred())

	data, err := os.ReadFile(out)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(strings.Split(strings.TrimSpace(string(data)), "\n")).To(HaveLen(2))
}

func TestBench_UsageErrors(t *testing.T) {
	cases := [][]string{
		{"bench"},
		{"bench", "--repeat", "0", "."},
		{"bench", "--generate", "lots", t.TempDir()},
		{"bench", "--generate", "10", "--fanout", "1", t.TempDir()},
	}

	for _, args := range cases {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			g := NewWithT(t)

			_, _, err := execute(args...)
			g.Expect(err).To(HaveOccurred())
			g.Expect(ExitCode(err)).To(Equal(ExitUsage))
		})
	}
}

func TestParseHumanU64(t *testing.T) {
	cases := map[string]uint64{
		"10":      10,
		"1k":      1_000,
		"1.5m":    1_500_000,
		"2ki":     2048,
		"100_000": 100_000,
		" 3 ":     3,
	}

	for input, want := range cases {
		g := NewWithT(t)

		got, err := parseHumanU64(input)
		g.Expect(err).NotTo(HaveOccurred(), input)
		g.Expect(got).To(Equal(want), input)
	}

	for _, bad := range []string{"", "k", "12q", "-1"} {
		g := NewWithT(t)

		_, err := parseHumanU64(bad)
		g.Expect(err).To(HaveOccurred(), bad)
	}
}

func TestDirForFile_SpreadsDigitsAcrossLevels(t *testing.T) {
	g := NewWithT(t)

	g.Expect(dirForFile("r", 7, 3, 2)).To(Equal(filepath.Join("r", "l00_001", "l01_002")))
	g.Expect(dirForFile("r", 7, 3, 0)).To(Equal("r"))
}

func TestExitCode(t *testing.T) {
	g := NewWithT(t)

	g.Expect(ExitCode(nil)).To(Equal(ExitOK))
	g.Expect(ExitCode(errors.New("boom"))).To(Equal(ExitError))
	g.Expect(ExitCode(usageErrorf("bad flag"))).To(Equal(ExitUsage))
	g.Expect(ExitCode(errors.Join(errors.New("x"), usageErrorf("y")))).To(Equal(ExitUsage))
}
