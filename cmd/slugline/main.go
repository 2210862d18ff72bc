/*
 * Copyright (c) 2026 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"slugline/internal/backend"
	"slugline/internal/bundle"
	"slugline/internal/config"
	"slugline/internal/crash"
	"slugline/internal/decode"
	"slugline/internal/domain"
	"slugline/internal/export"
	applog "slugline/internal/log"
	"slugline/internal/screenplay"
	"slugline/internal/storage"
	"slugline/internal/telemetry"
	"slugline/internal/version"
)

func usage() {
	fmt.Println("Slugline — screenplay corpus tools")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  slugline version|-v|--version                Show version")
	fmt.Println("  slugline init <dir> <name>                   Create a new corpus at <dir> with name <name>")
	fmt.Println("  slugline open <dir>                          Open corpus at <dir> and print summary")
	fmt.Println("  slugline save <dir>                          Save corpus manifest at <dir> (creates backup)")
	fmt.Println("  slugline process <dir> <file>                Decode <file>, type its lines, store the elements")
	fmt.Println("  slugline inspect <file>                      Print the per-line classification of <file>")
	fmt.Println("  slugline search <dir> [flags] [query]        Full-text search over processed elements")
	fmt.Println("  slugline stats <dir> <script>                Scene breakdowns and per-character dialogue shares")
	fmt.Println("  slugline export <dir> <script> <out>         Render to <out>.pdf or <out>.epub; \"all\" batches every script")
	fmt.Println("  slugline publish <dir> <script>              Upload a processed script to the backend")
	fmt.Println("  slugline login [subject]                     Request a backend token and store it in the keyring")
	fmt.Println("  slugline remote list|elements <id>           Query the backend")
	fmt.Println("  slugline bundle export|install <dir> <zip>   Share corpus content as a zip bundle")
	fmt.Println("  slugline reindex <dir>                       Rebuild the search index from processed scripts")
}

// openCorpus resolves dir and opens the corpus there, exiting on failure.
func openCorpus(l *slog.Logger, dir string) *storage.CorpusHandle {
	abs, _ := filepath.Abs(dir)
	h, err := storage.Open(abs)
	if err != nil {
		l.Error("open failed", slog.String("root", abs), slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	return h
}

// backendClient builds a client from config and keyring token, exiting when no
// backend is configured.
func backendClient(l *slog.Logger) (*backend.Client, time.Duration) {
	cfg, tok, err := config.Load()
	if err != nil {
		l.Error("config load failed", slog.Any("err", err))
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	if strings.TrimSpace(cfg.Backend.BaseURL) == "" {
		fmt.Println("No backend configured. Set backend.base_url in the config file or " + config.EnvBackendURL + ".")
		os.Exit(1)
	}
	return backend.NewClient(cfg.Backend.BaseURL, tok), cfg.Backend.Timeout()
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var h *storage.CorpusHandle
	defer func() { crash.Recover(h) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("Slugline — screenplay corpus tools")
			fmt.Println(version.String())
			return
		case "init":
			if len(args) < 4 {
				fmt.Println("init requires <dir> and <name>")
				usage()
				os.Exit(2)
			}
			dir := args[2]
			name := args[3]
			abs, _ := filepath.Abs(dir)
			l.Info("init corpus", slog.String("root", abs), slog.String("name", name))
			c := domain.Corpus{Name: name, Scripts: []domain.ScriptRef{}}
			nh, err := storage.InitCorpus(abs, c)
			if err != nil {
				l.Error("init failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			h = nh
			fmt.Println("Created corpus at", abs)
			return
		case "open":
			if len(args) < 3 {
				fmt.Println("open requires <dir>")
				usage()
				os.Exit(2)
			}
			h = openCorpus(l, args[2])
			fmt.Printf("Opened corpus: %s\n", h.Corpus.Name)
			fmt.Printf("Scripts: %d\n", len(h.Corpus.Scripts))
			for _, s := range h.Corpus.Scripts {
				fmt.Printf("  %-24s %4d elements, processed %s\n", s.Name, s.Elements.Total, s.ProcessedAt.Format(time.RFC3339))
			}
			fmt.Println("Root:", h.Root)
			return
		case "save":
			if len(args) < 3 {
				fmt.Println("save requires <dir>")
				usage()
				os.Exit(2)
			}
			h = openCorpus(l, args[2])
			l.Info("save corpus", slog.String("root", h.Root))
			if err := storage.Save(h); err != nil {
				l.Error("save failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Saved corpus and created a backup of previous manifest (if any).")
			return
		case "process":
			if len(args) < 4 {
				fmt.Println("process requires <dir> and <file>")
				usage()
				os.Exit(2)
			}
			src := args[3]
			h = openCorpus(l, args[2])
			cfg, _, err := config.Load()
			if err != nil {
				cfg = config.Defaults()
			}
			lines, err := decode.Lines(src)
			if err != nil {
				l.Error("decode failed", slog.String("file", src), slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			els := screenplay.Process(lines)
			name := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
			l.Info("process script", slog.String("script", name), slog.Int("lines", len(lines)), slog.Int("elements", len(els)))
			if err := storage.WriteElements(h, name, els); err != nil {
				l.Error("write elements failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			srcRel := ""
			if cfg.General.CopySources {
				rel, err := storage.ImportSource(h, src)
				if err != nil {
					l.Warn("source copy failed", slog.Any("err", err))
				} else {
					srcRel = rel
				}
			}
			now := time.Now().UTC()
			h.UpsertScript(domain.ScriptRef{Name: name, Source: srcRel, ProcessedAt: now, Elements: storage.StatsFor(els)})
			if err := storage.Save(h); err != nil {
				l.Error("manifest save failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			ctx := context.Background()
			if err := storage.UpdateScriptElements(ctx, h.Root, name, els); err != nil {
				l.Error("index update failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			if err := storage.SaveSourceSnapshot(ctx, h, name, strings.Join(lines, "\n"), now); err != nil {
				l.Warn("source snapshot failed", slog.Any("err", err))
			}
			st := storage.StatsFor(els)
			fmt.Printf("Processed %s: %d elements (%d scenes, %d characters, %d dialogues, %d actions)\n",
				name, st.Total, st.Scenes, st.Characters, st.Dialogues, st.Actions)
			telemetry.Event("processed", map[string]any{"elements": st.Total, "scenes": st.Scenes})
			telemetry.Flush(ctx)
			return
		case "inspect":
			if len(args) < 3 {
				fmt.Println("inspect requires <file>")
				usage()
				os.Exit(2)
			}
			lines, err := decode.Lines(args[2])
			if err != nil {
				l.Error("decode failed", slog.String("file", args[2]), slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			for _, tr := range screenplay.TraceLines(lines) {
				fmt.Printf("%-9s %-20s %s\n", tr.Kind, tr.Speaker, tr.Line)
			}
			return
		case "search":
			if len(args) < 3 {
				fmt.Println("search requires <dir> [flags] [query]")
				usage()
				os.Exit(2)
			}
			fs := flag.NewFlagSet("search", flag.ExitOnError)
			typ := fs.String("type", "", "restrict to one element type (SCENE, CHARACTER, DIALOGUE, ACTION)")
			character := fs.String("character", "", "restrict to lines attributed to this speaker")
			scene := fs.String("scene", "", "restrict to scenes whose heading contains this text")
			script := fs.String("script", "", "restrict to one script")
			limit := fs.Int("limit", 20, "maximum results")
			_ = fs.Parse(args[3:])
			h = openCorpus(l, args[2])
			q := storage.Query{
				Text:      strings.Join(fs.Args(), " "),
				Type:      *typ,
				Character: *character,
				Scene:     *scene,
				Script:    *script,
				Limit:     *limit,
			}
			res, err := storage.Search(context.Background(), h.Root, q)
			if err != nil {
				l.Error("search failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			if len(res) == 0 {
				fmt.Println("No matches.")
				return
			}
			for _, r := range res {
				line := r.Snippet
				if line == "" {
					line = r.Text
				}
				who := r.Type
				if r.Speaker != "" {
					who = r.Speaker
				}
				loc := r.Script
				if r.Scene != "" {
					loc += " / " + r.Scene
				}
				fmt.Printf("[%s] %s: %s\n", loc, who, line)
			}
			return
		case "stats":
			if len(args) < 4 {
				fmt.Println("stats requires <dir> and <script>")
				usage()
				os.Exit(2)
			}
			h = openCorpus(l, args[2])
			els, err := storage.ReadElements(h, args[3])
			if err != nil {
				l.Error("read elements failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Scenes:")
			for _, b := range storage.ComputeSceneBreakdowns(els) {
				head := b.Heading
				if head == "" {
					head = "(before first scene)"
				}
				fmt.Printf("  %-44s dialogues=%d actions=%d", head, b.Dialogues, b.Actions)
				if len(b.Speakers) > 0 {
					fmt.Printf(" speakers=%s", strings.Join(b.Speakers, ","))
				}
				fmt.Println()
			}
			fmt.Println()
			fmt.Println("Dialogue shares:")
			for _, s := range storage.ComputeDialogueShares(els) {
				fmt.Printf("  %-24s %4d lines %6d words\n", s.Character, s.Lines, s.Words)
			}
			return
		case "export":
			if len(args) < 4 {
				fmt.Println("export requires <dir> and <script> (or \"all\")")
				usage()
				os.Exit(2)
			}
			script := args[3]
			h = openCorpus(l, args[2])
			if script == "all" {
				if err := export.BatchExport(h, export.BatchOptions{}); err != nil {
					l.Error("batch export failed", slog.Any("err", err))
					fmt.Println("Error:", err)
					os.Exit(1)
				}
				fmt.Println("Exported all processed scripts under", filepath.Join(h.Root, storage.ExportsDirName))
				return
			}
			if len(args) < 5 {
				fmt.Println("export requires <out.pdf|out.epub>")
				usage()
				os.Exit(2)
			}
			out := args[4]
			if err := export.Export(h, script, out); err != nil {
				l.Error("export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Printf("Exported %s to %s\n", script, out)
			telemetry.Event("exported", map[string]any{"format": strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")})
			telemetry.Flush(context.Background())
			return
		case "publish":
			if len(args) < 4 {
				fmt.Println("publish requires <dir> and <script>")
				usage()
				os.Exit(2)
			}
			h = openCorpus(l, args[2])
			els, err := storage.ReadElements(h, args[3])
			if err != nil {
				l.Error("read elements failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			cli, timeout := backendClient(l)
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			id, err := cli.Publish(ctx, args[3], els)
			if err != nil {
				l.Error("publish failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Printf("Published %s as screenplay %d (%d elements)\n", args[3], id, len(els))
			return
		case "login":
			subject := "archivist"
			if len(args) >= 3 {
				subject = args[2]
			}
			cli, timeout := backendClient(l)
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			tok, err := cli.RequestToken(ctx, subject, 0)
			if err != nil {
				l.Error("token request failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			if err := config.StoreBackendToken(tok); err != nil {
				l.Error("token store failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Printf("Token for %q stored in the system keyring.\n", subject)
			return
		case "remote":
			if len(args) < 3 {
				fmt.Println("remote requires <list|elements>")
				usage()
				os.Exit(2)
			}
			cli, timeout := backendClient(l)
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			switch args[2] {
			case "list":
				sps, err := cli.ListScreenplays(ctx)
				if err != nil {
					l.Error("remote list failed", slog.Any("err", err))
					fmt.Println("Error:", err)
					os.Exit(1)
				}
				if len(sps) == 0 {
					fmt.Println("No screenplays published.")
					return
				}
				for _, sp := range sps {
					fmt.Printf("%4d  %-28s %5d elements  updated %s\n", sp.ID, sp.Name, sp.ElementCount, sp.UpdatedAt.Format(time.RFC3339))
				}
			case "elements":
				if len(args) < 4 {
					fmt.Println("remote elements requires <id>")
					usage()
					os.Exit(2)
				}
				id, err := strconv.ParseInt(args[3], 10, 64)
				if err != nil {
					fmt.Println("Error: invalid id:", args[3])
					os.Exit(2)
				}
				els, err := cli.GetElements(ctx, id)
				if err != nil {
					l.Error("remote elements failed", slog.Any("err", err))
					fmt.Println("Error:", err)
					os.Exit(1)
				}
				fmt.Print(screenplay.FormatText(els))
			default:
				fmt.Println("remote requires <list|elements>")
				usage()
				os.Exit(2)
			}
			return
		case "bundle":
			if len(args) < 5 {
				fmt.Println("bundle requires <export|install> <dir> <zip>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[3])
			switch args[2] {
			case "export":
				if err := bundle.ExportCorpusBundle(abs, args[4]); err != nil {
					l.Error("bundle export failed", slog.Any("err", err))
					fmt.Println("Error:", err)
					os.Exit(1)
				}
				fmt.Println("Bundle written to", args[4])
			case "install":
				n, err := bundle.InstallBundle(abs, args[4])
				if err != nil {
					l.Error("bundle install failed", slog.Any("err", err))
					fmt.Println("Error:", err)
					os.Exit(1)
				}
				fmt.Printf("Installed %d files into %s\n", n, abs)
			default:
				fmt.Println("bundle requires <export|install>")
				usage()
				os.Exit(2)
			}
			return
		case "reindex":
			if len(args) < 3 {
				fmt.Println("reindex requires <dir>")
				usage()
				os.Exit(2)
			}
			h = openCorpus(l, args[2])
			if err := storage.RebuildIndex(context.Background(), h); err != nil {
				l.Error("reindex failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Search index rebuilt from processed scripts.")
			return
		}
	}

	usage()
}
