package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration of a scout run
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Browser   BrowserConfig   `yaml:"browser"`
	Selectors Selectors       `yaml:"selectors"`
	State     StateConfig     `yaml:"state"`
	Traversal TraversalConfig `yaml:"traversal"`
	Reasoning ReasoningConfig `yaml:"reasoning"`
	Rubric    Rubric          `yaml:"rubric"`
	Stages    Stages          `yaml:"stages"`
	Database  DatabaseConfig  `yaml:"database"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Sheets    SheetsConfig    `yaml:"sheets"`
	Secrets   Secrets         `yaml:"-"`
}

// SiteConfig describes the listing to traverse
type SiteConfig struct {
	BaseURL       string `yaml:"base_url"`
	SearchPath    string `yaml:"search_path"`
	Keyword       string `yaml:"keyword"`
	Location      string `yaml:"location"`
	EasyApplyOnly bool   `yaml:"easy_apply_only"`
	Login         bool   `yaml:"login"`
}

// BrowserConfig controls the rod launcher
type BrowserConfig struct {
	Headless         bool          `yaml:"headless"`
	UserDataDir      string        `yaml:"user_data_dir"`
	Bin              string        `yaml:"bin"`
	SettleTimeout    time.Duration `yaml:"settle_timeout"`
	OverlayTimeout   time.Duration `yaml:"overlay_timeout"`
	PauseAfterSearch bool          `yaml:"pause_after_search"`
}

// Selectors holds every CSS selector the browser collaborators rely on
type Selectors struct {
	SignInButton     string `yaml:"sign_in_button"`
	EmailInput       string `yaml:"email_input"`
	PasswordInput    string `yaml:"password_input"`
	KeywordInput     string `yaml:"keyword_input"`
	LocationInput    string `yaml:"location_input"`
	EasyApplyText    string `yaml:"easy_apply_text"`
	ListContainer    string `yaml:"list_container"`
	ListItem         string `yaml:"list_item"`
	ItemIDAttribute  string `yaml:"item_id_attribute"`
	LoadMoreButton   string `yaml:"load_more_button"`
	OverlayClose     string `yaml:"overlay_close"`
	ShowMoreButton   string `yaml:"show_more_button"`
	Description      string `yaml:"description"`
	BookmarkButton   string `yaml:"bookmark_button"`
	BookmarkSavedTag string `yaml:"bookmark_saved_label"`
}

// StateConfig locates the persisted visited set and result journal
type StateConfig struct {
	VisitedFile    string `yaml:"visited_file"`
	ResultsFile    string `yaml:"results_file"`
	VisitedBackend string `yaml:"visited_backend"` // "file" or "redis"
	RedisAddr      string `yaml:"redis_addr"`
	RedisKey       string `yaml:"redis_key"`
}

// TraversalConfig tunes the traversal engine
type TraversalConfig struct {
	MaxItems           int           `yaml:"max_items"`
	ViewRetries        int           `yaml:"view_retries"`
	MaxEmptyReveals    int           `yaml:"max_empty_reveals"`
	RetryServiceErrors bool          `yaml:"retry_service_errors"`
	Every              time.Duration `yaml:"every"`
	Cron               string        `yaml:"cron"`
}

// ReasoningConfig configures the reasoning service client and its rate limit
type ReasoningConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	MinInterval time.Duration `yaml:"min_interval"`
	Timeout     time.Duration `yaml:"timeout"`
	Retries     int           `yaml:"retries"`
}

// Rubric is the applicant data embedded into stage prompts
type Rubric struct {
	Constraints []string `yaml:"constraints"`
	Accepted    []string `yaml:"accepted_categories"`
	Excluded    []string `yaml:"excluded_categories"`
	Skills      []string `yaml:"skills"`
}

// StagePrompt is the prompt pair of one cascade stage. Prompt sees the item
// content and the rubric; FollowUp sees the first answer as {{.Answer}}.
type StagePrompt struct {
	Prompt   string `yaml:"prompt"`
	FollowUp string `yaml:"follow_up"`
}

// Stages holds the three cascade stages in evaluation order
type Stages struct {
	Eligibility StagePrompt `yaml:"eligibility"`
	DomainFit   StagePrompt `yaml:"domain_fit"`
	SkillFit    StagePrompt `yaml:"skill_fit"`
}

// DatabaseConfig enables the optional Postgres outcome mirror
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// TelegramConfig enables optional bookmark notifications
type TelegramConfig struct {
	ChatID int64 `yaml:"chat_id"`
}

// SMTPConfig enables the optional end-of-run email digest
type SMTPConfig struct {
	Server string   `yaml:"server"`
	Port   int      `yaml:"port"`
	From   string   `yaml:"from"`
	To     []string `yaml:"to"`
}

// SheetsConfig configures the Google Sheets export
type SheetsConfig struct {
	SpreadsheetURL  string `yaml:"spreadsheet_url"`
	CredentialsPath string `yaml:"credentials_path"`
}

// Secrets are read from the environment only
type Secrets struct {
	ReasoningAPIKey   string
	Email             string
	Password          string
	TelegramToken     string
	SMTPPassword      string
	SheetsCredentials string
}

// LoadConfig loads configuration from a YAML file on top of the defaults.
// A missing file is not an error: the defaults are returned.
func LoadConfig(path string) (*Config, error) {
	cfg := GetDefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		slog.Warn("config file not found, using defaults", "path", path)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Secrets.ReasoningAPIKey = os.Getenv("GROQ_API_KEY")
	c.Secrets.Email = os.Getenv("JOBSCOUT_EMAIL")
	c.Secrets.Password = os.Getenv("JOBSCOUT_PASSWORD")
	c.Secrets.TelegramToken = os.Getenv("JOBSCOUT_TG_TOKEN")
	c.Secrets.SMTPPassword = os.Getenv("JOBSCOUT_SMTP_PASSWORD")
	c.Secrets.SheetsCredentials = os.Getenv("GOOGLE_SHEETS_CREDENTIALS")

	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.State.RedisAddr = v
	}
	if v := os.Getenv("JOBSCOUT_TG_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Telegram.ChatID = id
		}
	}
}

// Validate rejects configurations the engine cannot run with
func (c *Config) Validate() error {
	if c.State.VisitedFile == "" && c.State.VisitedBackend != "redis" {
		return errors.New("config: state.visited_file is required")
	}
	if c.State.ResultsFile == "" {
		return errors.New("config: state.results_file is required")
	}
	switch c.State.VisitedBackend {
	case "", "file":
	case "redis":
		if c.State.RedisAddr == "" {
			return errors.New("config: state.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("config: unknown visited backend %q", c.State.VisitedBackend)
	}
	if c.Reasoning.MinInterval < 0 {
		return errors.New("config: reasoning.min_interval must not be negative")
	}
	if c.SMTP.Server != "" && (c.SMTP.From == "" || len(c.SMTP.To) == 0) {
		return errors.New("config: smtp.from and smtp.to are required when smtp.server is set")
	}
	if c.Traversal.Cron != "" && c.Traversal.Every > 0 {
		return errors.New("config: traversal.cron and traversal.every are mutually exclusive")
	}
	if c.Traversal.MaxItems < 0 || c.Traversal.ViewRetries < 0 || c.Traversal.MaxEmptyReveals < 0 {
		return errors.New("config: traversal limits must not be negative")
	}
	for name, stage := range map[string]StagePrompt{
		"eligibility": c.Stages.Eligibility,
		"domain_fit":  c.Stages.DomainFit,
		"skill_fit":   c.Stages.SkillFit,
	} {
		if stage.Prompt == "" || stage.FollowUp == "" {
			return fmt.Errorf("config: stage %s needs both prompt and follow_up", name)
		}
	}
	return nil
}

// GetDefaultConfig returns a configuration reproducing the original
// Glassdoor internship search
func GetDefaultConfig() *Config {
	cfg := &Config{}

	cfg.Site.BaseURL = "https://www.glassdoor.com"
	cfg.Site.SearchPath = "/Job/index.htm"
	cfg.Site.Keyword = "Software Intern"
	cfg.Site.Location = "United States"
	cfg.Site.EasyApplyOnly = true
	cfg.Site.Login = true

	cfg.Browser.Headless = false
	cfg.Browser.UserDataDir = "/tmp/jobscout-data"
	cfg.Browser.SettleTimeout = 10 * time.Second
	cfg.Browser.OverlayTimeout = 2 * time.Second

	cfg.Selectors = Selectors{
		SignInButton:     "div[id*='SignInButton'] button[aria-label*='sign']",
		EmailInput:       "div[class*='TextInputWrapper'] input[type*='email']",
		PasswordInput:    "div[data-test*='passwordInput'] input[type*='password']",
		KeywordInput:     "input[id*='searchBar-jobTitle']",
		LocationInput:    "input[id*='searchBar-location']",
		EasyApplyText:    "Easy Apply only",
		ListContainer:    "ul[aria-label*='Jobs List'][class*='JobsList_jobsList_']",
		ListItem:         "li[class*='JobsList_jobListItem']",
		ItemIDAttribute:  "data-jobid",
		LoadMoreButton:   "div[class*='JobsList_buttonWrapper'] button[class*='button_Button']",
		OverlayClose:     "button[data-test='job-alert-modal-close']",
		ShowMoreButton:   "button[class*='JobDetails_showMore']",
		Description:      "div[class*='JobDetails_jobDescription']",
		BookmarkButton:   "div[class*='JobDetails_webActionWrapper'] button[class*='BookmarkButton_buttonWrapper']",
		BookmarkSavedTag: "Saved",
	}

	cfg.State.VisitedFile = "data/visited_job_ids.json"
	cfg.State.ResultsFile = "data/job_data.json"
	cfg.State.VisitedBackend = "file"
	cfg.State.RedisKey = "jobscout:visited"

	cfg.Traversal.ViewRetries = 3
	cfg.Traversal.MaxEmptyReveals = 2

	cfg.Reasoning.BaseURL = "https://api.groq.com/openai/v1"
	cfg.Reasoning.Model = "llama-3.1-70b-versatile"
	cfg.Reasoning.Temperature = 0
	cfg.Reasoning.MinInterval = 15 * time.Second
	cfg.Reasoning.Timeout = 60 * time.Second
	cfg.Reasoning.Retries = 2

	cfg.Rubric = Rubric{
		Constraints: []string{
			"I am a first year master's student living in Japan and will graduate in March 2026, not earlier and not later.",
			"I have academic terms until March 2026.",
			"My major is computer science.",
			"I am available for internships from the summer of 2024 until the winter of 2025.",
			"I speak English and am willing to work in any location.",
			"If the posting explicitly says the company does not sponsor visas, the answer is No. If sponsorship is not mentioned or is offered, the answer is Yes.",
		},
		Accepted: []string{
			"Software Engineer / Software Developer", "Full Stack Developer", "Backend Engineer",
			"Frontend Engineer", "Machine Learning Engineer", "Mobile App Developer",
			"DevOps Engineer", "Cloud Engineer", "Game Developer", "Embedded Systems Programmer",
		},
		Excluded: []string{
			"Project Manager", "Product Owner", "Business Analyst", "UX/UI Designer",
			"Data Analyst (non-programming)", "Systems Administrator", "Network Engineer",
			"QA Engineer (manual testing)", "Technical Analyst", "Security Engineer (policy and risk)",
			"Database Administrator", "AI Researcher (theoretical)", "IoT Strategist",
			"Technical Writer", "IT Project Coordinator", "IT Trainer", "IT Procurement Specialist",
			"IT Compliance Analyst", "IT Service Desk Analyst", "IT Asset Manager",
		},
		Skills: []string{
			"C, Python, JavaScript and HTML.",
			"Working in the Linux command line.",
			"SQLite databases.",
			"Web scraping with Selenium and Beautiful Soup.",
			"Debugging with GDB and Valgrind.",
		},
	}

	cfg.Stages.Eligibility = StagePrompt{
		Prompt: `I would like to apply for an internship. Can I apply for the following internship? Explain your reasoning carefully.
### About me ###
{{range .Constraints}}- {{.}}
{{end}}
### Job description ###
{{.Content}}`,
		FollowUp: `Please answer with Yes or No. Am I eligible to apply for this internship? {{.Answer}}`,
	}
	cfg.Stages.DomainFit = StagePrompt{
		Prompt: `Is this job primarily focused on programming and coding? Answer Yes or No and give a short explanation.
I am looking for roles with substantial hands-on development work, not consulting or administrative roles.
### Example answer ###
Yes, job_type: SWE, ex: The position is mainly building and maintaining backend services.
### Preferred job types ###
{{range .Accepted}}- {{.}}
{{end}}
### Non-coding job types ###
{{range .Excluded}}- {{.}}
{{end}}
### Job description ###
{{.Content}}`,
		FollowUp: `Based on this information, is this job primarily focused on programming and coding tasks? Please answer Yes or No. {{.Answer}}`,
	}
	cfg.Stages.SkillFit = StagePrompt{
		Prompt: `Can I apply for the following internship with my skills? Answer Yes or No and give a short explanation.
### My skills and interests ###
{{range .Skills}}- {{.}}
{{end}}
### Job description ###
{{.Content}}`,
		FollowUp: `Please answer with only Yes or No, {{.Answer}}`,
	}

	return cfg
}
