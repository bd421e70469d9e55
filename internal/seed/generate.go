// Package seed generates synthetic incident tickets and uploads them to
// Jira in bulk, for exercising the fetch and analyze pipelines against
// a realistic project.
package seed

import (
	_ "embed"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

// prefixVariants mixes the case of the "srv" prefix so generated text
// exercises the extractor's case-insensitivity.
var prefixVariants = []string{"srv", "SRV", "Srv", "sRv", "srV", "SRv", "SrV", "sRV"}

const suffixChars = "abcdefghijklmnopqrstuvwxyz0123456789"

// Templates holds the incident text templates, keyed by technology.
// Placeholders {server}, {server2} and {db_name} are substituted per
// generated ticket.
type Templates struct {
	Databases    []string            `yaml:"databases"`
	Technologies map[string][]string `yaml:"technologies"`
}

// LoadTemplates reads templates from path, or the embedded defaults
// when path is empty.
func LoadTemplates(path string) (*Templates, error) {
	data := defaultTemplates
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "seed: read templates %s", path)
		}
	}

	var t Templates
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, eris.Wrap(err, "seed: parse templates")
	}
	if len(t.Technologies) == 0 {
		return nil, eris.New("seed: templates define no technologies")
	}
	return &t, nil
}

// Generator produces incident descriptions. A fixed-size server pool
// makes most mentions repeat across tickets; roughly one in ten server
// names is fresh noise, and a small fraction of descriptions carry a
// broken prefix or a blanked-out name to simulate dirty data.
type Generator struct {
	templates *Templates
	techs     []string
	pool      []string
	rng       *rand.Rand
}

// NewGenerator creates a generator with a server pool of poolSize
// suffixes. The seed fixes the random sequence for reproducible runs.
func NewGenerator(templates *Templates, poolSize int, seedVal int64) *Generator {
	rng := rand.New(rand.NewSource(seedVal))

	techs := make([]string, 0, len(templates.Technologies))
	for tech := range templates.Technologies {
		techs = append(techs, tech)
	}
	// Map iteration order is randomized; sort for reproducibility.
	sort.Strings(techs)

	pool := make([]string, 0, poolSize)
	seen := make(map[string]struct{}, poolSize)
	for len(pool) < poolSize {
		s := randomSuffix(rng)
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		pool = append(pool, s)
	}

	return &Generator{templates: templates, techs: techs, pool: pool, rng: rng}
}

// Description returns one synthetic incident: the technology it was
// templated from and the ticket text.
func (g *Generator) Description() (tech, text string) {
	tech = g.techs[g.rng.Intn(len(g.techs))]
	templates := g.templates.Technologies[tech]
	template := templates[g.rng.Intn(len(templates))]

	dbName := "customers"
	if len(g.templates.Databases) > 0 {
		dbName = g.templates.Databases[g.rng.Intn(len(g.templates.Databases))]
	}

	text = strings.NewReplacer(
		"{server}", g.serverName(),
		"{server2}", g.serverName(),
		"{db_name}", dbName,
	).Replace(template)

	// Occasionally break the prefix or blank out a name to simulate
	// tickets with no extractable server.
	if g.rng.Float64() < 0.05 {
		text = strings.ReplaceAll(text, "srv-", "xyz-")
	}
	if g.rng.Float64() < 0.05 {
		text = strings.ReplaceAll(text, g.serverName(), "")
	}
	return tech, text
}

// serverName picks from the pool 90% of the time so names recur, and
// invents a fresh suffix otherwise.
func (g *Generator) serverName() string {
	prefix := prefixVariants[g.rng.Intn(len(prefixVariants))]
	if g.rng.Float64() < 0.9 {
		return fmt.Sprintf("%s-%s", prefix, g.pool[g.rng.Intn(len(g.pool))])
	}
	return fmt.Sprintf("%s-%s", prefix, randomSuffix(g.rng))
}

func randomSuffix(rng *rand.Rand) string {
	n := 2 + rng.Intn(9)
	b := make([]byte, n)
	for i := range b {
		b[i] = suffixChars[rng.Intn(len(suffixChars))]
	}
	return string(b)
}
