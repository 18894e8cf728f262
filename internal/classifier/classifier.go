package classifier

import (
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/therealutkarshpriyadarshi/logcat/pkg/types"
)

// DefaultCacheSize bounds the number of distinct subjects NewDefault remembers
const DefaultCacheSize = 4096

type matcher struct {
	category types.Category
	source   string
	re       *regexp.Regexp
}

type verdict struct {
	category types.Category
	pattern  string
}

// Classifier assigns error records to a failure category by ordered rule evaluation
type Classifier struct {
	matchers  []matcher
	cacheSize int
	cache     *lru.Cache[string, verdict]
}

// Option configures a Classifier
type Option func(*Classifier)

// WithCacheSize memoizes verdicts for up to size distinct subjects. Zero
// disables the cache.
func WithCacheSize(size int) Option {
	return func(c *Classifier) {
		c.cacheSize = size
	}
}

// New compiles the rules into a classifier. Rules are evaluated in slice order and,
// within a rule, patterns in slice order; all patterns are case-insensitive.
func New(rules []Rule, opts ...Option) (*Classifier, error) {
	c := &Classifier{}
	for _, opt := range opts {
		opt(c)
	}
	if c.cacheSize < 0 {
		return nil, fmt.Errorf("cache size must not be negative, got %d", c.cacheSize)
	}
	for _, rule := range rules {
		if rule.Category == "" {
			return nil, fmt.Errorf("rule has no category")
		}
		for _, pattern := range rule.Patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q for category %s: %w", pattern, rule.Category, err)
			}
			c.matchers = append(c.matchers, matcher{category: rule.Category, source: pattern, re: re})
		}
	}

	if c.cacheSize > 0 {
		cache, err := lru.New[string, verdict](c.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create verdict cache: %w", err)
		}
		c.cache = cache
	}
	return c, nil
}

// NewDefault creates a cached classifier over DefaultRules
func NewDefault() *Classifier {
	c, err := New(DefaultRules(), WithCacheSize(DefaultCacheSize))
	if err != nil {
		panic(fmt.Sprintf("default classifier rules do not compile: %v", err))
	}
	return c
}

// Subject builds the lowercase search text for a record
func Subject(record *types.LogRecord) string {
	return strings.ToLower(record.Tag) + " " + strings.ToLower(record.Message)
}

// Classify returns the category of the first matching pattern, or CategoryOther
func (c *Classifier) Classify(record *types.LogRecord) types.Category {
	category, _ := c.Explain(record)
	return category
}

// Explain is Classify that also reports the pattern that selected the category.
// The pattern is empty when the record falls through to CategoryOther.
func (c *Classifier) Explain(record *types.LogRecord) (types.Category, string) {
	subject := Subject(record)

	if c.cache != nil {
		if v, ok := c.cache.Get(subject); ok {
			return v.category, v.pattern
		}
	}

	v := c.evaluate(subject)
	if c.cache != nil {
		c.cache.Add(subject, v)
	}
	return v.category, v.pattern
}

// CachedSubjects returns the number of subjects currently memoized
func (c *Classifier) CachedSubjects() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}

func (c *Classifier) evaluate(subject string) verdict {
	for _, m := range c.matchers {
		if m.re.MatchString(subject) {
			return verdict{category: m.category, pattern: m.source}
		}
	}
	return verdict{category: types.CategoryOther}
}
