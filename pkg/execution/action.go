package execution

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/komodo-run/komodo-core/pkg/interpolate"
	"github.com/komodo-run/komodo-core/pkg/models"
	"github.com/komodo-run/komodo-core/pkg/redact"
	"github.com/komodo-run/komodo-core/pkg/update"
)

// DenoRunner is the real ActionRunner, shelling out to `deno run
// --allow-all <path>` the way the source's action executor does.
type DenoRunner struct{}

func (DenoRunner) Run(ctx context.Context, scriptPath string) (stdout, stderr string, err error) {
	cmd := exec.CommandContext(ctx, "deno", "run", "--allow-all", scriptPath)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.String(), errBuf.String(), err
}

// ActionLookup fetches the user-authored script body for an Action target.
type ActionLookup interface {
	FileContents(ctx context.Context, actionID string) (string, error)
	PersistLastRun(ctx context.Context, actionID string, ranAt int64) error
}

// KeyIssuer mints and revokes the ephemeral API key+secret pair an Action
// runs under, owned by the system action user.
type KeyIssuer interface {
	IssueKey(ctx context.Context) (key, secret string, err error)
	RevokeKey(ctx context.Context, key string) error
}

// ActionRunner executes the synthesized script file and captures its
// output; the real implementation shells out to `deno run --allow-all`.
type ActionRunner interface {
	Run(ctx context.Context, scriptPath string) (stdout, stderr string, err error)
}

const actionFilenameLen = 12 // exceeds the source's 10-char alnum convention

const actionScriptTemplate = `import { KomodoClient } from '%s/client/lib.js';
import * as __YAML__ from 'jsr:@std/yaml';
import * as __TOML__ from 'jsr:@std/toml';

const YAML = {
  stringify: __YAML__.stringify,
  parse: __YAML__.parse,
  parseAll: __YAML__.parseAll,
  parseDockerCompose: __YAML__.parse,
}

const TOML = {
  stringify: __TOML__.stringify,
  parse: __TOML__.parse,
  parseResourceToml: __TOML__.parse,
  parseCargoToml: __TOML__.parse,
}

const komodo = KomodoClient('%s', {
  type: 'api-key',
  params: { key: '%s', secret: '%s' }
});

async function main() {
%s

console.log('🦎 Action completed successfully 🦎');
}

main()
.catch(error => {
  console.error('🚨 Action exited early with errors 🚨')
  if (error.status !== undefined && error.result !== undefined) {
    console.error('Status:', error.status);
    console.error(JSON.stringify(error.result, null, 2));
  } else {
    console.error(JSON.stringify(error, null, 2));
  }
  Deno.exit(1)
});`

// randomAlnum generates an n-character lowercase-alnum filename component,
// used instead of a predictable name so concurrent actions don't collide on
// the same compiled-script cache entry under $DENO_DIR/gen/file.
func randomAlnum(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf)
}

// RunActionHandler mints an ephemeral key, resolves
// [[var]]/[[secret]]! references, synthesizes the wrapped script, runs it
// under deno, redact secrets from captured output, and clean up the key,
// the script file, and deno's cached compile of it.
func RunActionHandler(lookup ActionLookup, vars interpolate.VariableLookup, keys KeyIssuer, runner ActionRunner, coreBaseURL string, scratchDir string, now func() int64) Handler {
	return func(ctx context.Context, req ExecuteRequest, journal *update.Journal, u *models.Update) error {
		contents, err := lookup.FileContents(ctx, req.Target.ID)
		if err != nil {
			return fmt.Errorf("action: load file contents: %w", err)
		}

		resolved, used, err := interpolate.Resolve(ctx, vars, contents)
		if err != nil {
			return fmt.Errorf("action: interpolate variables: %w", err)
		}

		var plainNames []string
		for _, r := range used {
			if !r.IsSecret {
				plainNames = append(plainNames, r.Name)
			}
		}
		if len(plainNames) > 0 {
			if err := journal.AppendLog(ctx, u, models.Log{
				Stage:   "interpolate",
				Stdout:  "resolved variables: " + strings.Join(plainNames, ", "),
				Success: true,
			}); err != nil {
				return err
			}
		}

		secretValues, err := interpolate.SecretValues(ctx, vars, used)
		if err != nil {
			return fmt.Errorf("action: resolve secret values: %w", err)
		}

		key, secret, err := keys.IssueKey(ctx)
		if err != nil {
			return fmt.Errorf("action: issue api key: %w", err)
		}
		defer func() { _ = keys.RevokeKey(ctx, key) }()

		replacer := redact.New(append(secretValues, key, secret)...)

		name := randomAlnum(actionFilenameLen)
		scriptPath := filepath.Join(scratchDir, name+".ts")
		script := fmt.Sprintf(actionScriptTemplate, coreBaseURL, coreBaseURL, key, secret, resolved)
		if err := os.WriteFile(scriptPath, []byte(script), 0o600); err != nil {
			return fmt.Errorf("action: write script: %w", err)
		}
		defer cleanupAction(scriptPath, name)

		stdout, stderr, runErr := runner.Run(ctx, scriptPath)
		logEntry := models.Log{
			Stage:   "run",
			Command: "deno run --allow-all " + scriptPath,
			Stdout:  replacer.Scrub(stdout),
			Stderr:  replacer.Scrub(stderr),
			Success: runErr == nil,
		}
		if err := journal.AppendLog(ctx, u, logEntry); err != nil {
			return err
		}
		if runErr != nil {
			return fmt.Errorf("action: %w", runErr)
		}

		return lookup.PersistLastRun(ctx, req.Target.ID, now())
	}
}

// cleanupAction removes the generated script and best-effort deletes deno's
// cached compile of it from $DENO_DIR/gen/file.
// At most one matching file is assumed to exist; running two actions with
// colliding names concurrently can race here.
func cleanupAction(scriptPath, name string) {
	_ = os.Remove(scriptPath)

	denoDir := os.Getenv("DENO_DIR")
	if denoDir == "" {
		return
	}
	genRoot := filepath.Join(denoDir, "gen", "file")
	_ = filepath.WalkDir(genRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.Contains(d.Name(), name) {
			_ = os.Remove(path)
		}
		return nil
	})
}
