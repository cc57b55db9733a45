package usecase

import (
	"strings"

	"go.uber.org/zap"

	"github.com/connecta/gig-scraper/internal/entity"
)

// DefaultCategory is assigned when no category keyword matches.
const DefaultCategory = "Other"

type niche struct {
	name     string
	keywords []string
}

type category struct {
	name     string
	keywords []string
	niches   []niche
}

// categories is evaluated in order; earlier entries win ties.
var categories = []category{
	{
		name: "Technology & Programming",
		keywords: []string{
			"developer", "engineer", "programmer", "software", "web", "mobile", "app",
			"frontend", "backend", "fullstack", "full-stack", "devops", "cloud",
			"javascript", "python", "java", "react", "node", "angular", "vue",
			"database", "sql", "mongodb", "api", "coding", "saas", "tech",
			"cybersecurity", "blockchain", "web3", "game development", "qa", "testing",
			"data science", "machine learning", "ai", "artificial intelligence",
		},
		niches: []niche{
			{"Web Development", []string{"web developer", "frontend", "backend", "fullstack", "html", "css", "javascript"}},
			{"Mobile Development", []string{"mobile", "ios", "android", "react native", "flutter", "swift", "kotlin"}},
			{"Software Engineering", []string{"software engineer", "programmer", "coding", "development"}},
			{"Data Science", []string{"data scientist", "machine learning", "ai", "analytics", "big data"}},
			{"DevOps & Cloud", []string{"devops", "cloud", "aws", "azure", "docker", "kubernetes"}},
			{"Cybersecurity", []string{"security", "cybersecurity", "penetration testing", "ethical hacking"}},
			{"Blockchain & Web3", []string{"blockchain", "web3", "crypto", "smart contract", "solidity"}},
		},
	},
	{
		name: "Design & Creative",
		keywords: []string{
			"designer", "design", "ui", "ux", "graphic", "creative", "photoshop",
			"illustrator", "figma", "sketch", "branding", "logo", "visual",
			"3d", "animation", "video", "illustration", "art", "creative director",
			"product design", "fashion design", "interior design",
		},
		niches: []niche{
			{"Graphic Design", []string{"graphic design", "photoshop", "illustrator"}},
			{"UI/UX Design", []string{"ui", "ux", "user interface", "user experience", "figma", "sketch"}},
			{"Logo & Branding", []string{"logo", "branding", "brand identity"}},
			{"3D Modeling & Rendering", []string{"3d", "modeling", "rendering", "blender"}},
			{"Video Production", []string{"video", "videographer", "video production"}},
			{"Animation", []string{"animation", "animator", "motion graphics"}},
		},
	},
	{
		name: "Marketing & Sales",
		keywords: []string{
			"marketing", "sales", "seo", "sem", "social media", "digital marketing",
			"content marketing", "email marketing", "advertising", "ppc", "analytics",
			"copywriting", "market research", "brand", "campaign", "lead generation",
			"business development", "affiliate", "public relations", "pr",
		},
		niches: []niche{
			{"Digital Marketing", []string{"digital marketing", "online marketing"}},
			{"Social Media Marketing", []string{"social media", "instagram", "facebook", "twitter", "linkedin"}},
			{"SEO & SEM", []string{"seo", "sem", "search engine", "google ads"}},
			{"Content Marketing", []string{"content marketing", "content strategy"}},
			{"Sales & Business Dev", []string{"sales", "business development", "lead generation"}},
		},
	},
	{
		name: "Business & Finance",
		keywords: []string{
			"accountant", "finance", "accounting", "bookkeeping", "financial",
			"business analyst", "consultant", "project manager", "admin",
			"virtual assistant", "data entry", "legal", "lawyer", "attorney",
			"hr", "human resources", "recruiting", "recruitment", "supply chain",
		},
		niches: []niche{
			{"Accounting & Bookkeeping", []string{"accounting", "bookkeeping", "accountant"}},
			{"Financial Analysis", []string{"financial analyst", "finance"}},
			{"Project Management", []string{"project manager", "scrum master", "agile"}},
			{"Virtual Assistant", []string{"virtual assistant", "va", "admin assistant"}},
			{"Legal Consulting", []string{"legal", "lawyer", "attorney"}},
			{"HR & Recruiting", []string{"hr", "human resources", "recruiter", "recruitment"}},
		},
	},
	{
		name: "Writing & Translation",
		keywords: []string{
			"writer", "writing", "content writer", "copywriter", "editor",
			"translator", "translation", "proofreading", "technical writer",
			"blogger", "journalist", "author", "creative writing", "grant writing",
		},
		niches: []niche{
			{"Copywriting", []string{"copywriter", "copywriting"}},
			{"Content Writing", []string{"content writer", "content writing", "blogger"}},
			{"Technical Writing", []string{"technical writer", "documentation"}},
			{"Translation", []string{"translator", "translation"}},
			{"Editing & Proofreading", []string{"editor", "proofreading", "editing"}},
		},
	},
	{
		name: "Hospitality & Events",
		keywords: []string{
			"hotel", "hospitality", "event", "catering", "restaurant", "chef",
			"cook", "waiter", "bartender", "tour guide", "travel", "tourism",
			"event planner", "event coordinator",
		},
		niches: []niche{
			{"Hotel Management", []string{"hotel", "hotel management"}},
			{"Event Planning", []string{"event planning", "event coordinator"}},
			{"Catering", []string{"catering", "chef", "cook"}},
			{"Travel Planning", []string{"travel", "tourism", "tour guide"}},
		},
	},
	{
		name: "Health & Fitness",
		keywords: []string{
			"health", "fitness", "trainer", "coach", "nutrition", "wellness",
			"yoga", "personal trainer", "gym", "medical", "nurse", "doctor",
			"healthcare", "physiotherapy", "telehealth",
		},
		niches: []niche{
			{"Personal Training", []string{"personal trainer", "fitness trainer"}},
			{"Nutrition Consulting", []string{"nutrition", "nutritionist", "dietitian"}},
			{"Wellness Coaching", []string{"wellness", "health coach"}},
			{"Yoga Instruction", []string{"yoga", "yoga instructor"}},
			{"Telehealth", []string{"telehealth", "telemedicine"}},
		},
	},
	{
		name: "Education & Training",
		keywords: []string{
			"teacher", "tutor", "instructor", "education", "training",
			"course", "curriculum", "e-learning", "online teaching",
			"lecturer", "professor", "academic",
		},
		niches: []niche{
			{"Tutoring", []string{"tutor", "tutoring"}},
			{"Online Course Creation", []string{"course creation", "e-learning"}},
			{"Language Instruction", []string{"language teacher", "language instructor"}},
			{"Educational Consulting", []string{"educational consultant"}},
		},
	},
}

// Classification is the label assigned to a gig. Niche may be empty.
type Classification struct {
	Category string
	Niche    string
}

// CategoryClassifier labels gigs by counting keyword hits in their text.
type CategoryClassifier struct {
	logger *zap.Logger
}

func NewCategoryClassifier(logger *zap.Logger) *CategoryClassifier {
	return &CategoryClassifier{logger: logger}
}

// Classify picks the category with the most keyword hits over title,
// description and skills. Only a strictly higher score replaces the current
// best, so ties go to the earlier category.
func (c *CategoryClassifier) Classify(gig entity.Gig) Classification {
	text := strings.ToLower(gig.Title + " " + gig.Description + " " + strings.Join(gig.Skills, " "))

	best := Classification{Category: DefaultCategory}
	maxScore := 0
	for _, cat := range categories {
		score := countMatches(text, cat.keywords)
		if score <= maxScore {
			continue
		}
		maxScore = score
		best = Classification{Category: cat.name, Niche: bestNiche(text, cat.niches)}
	}

	if maxScore > 0 {
		c.logger.Debug("classified gig", zap.String("title", gig.Title),
			zap.String("category", best.Category), zap.String("niche", best.Niche), zap.Int("score", maxScore))
	} else {
		c.logger.Debug("no clear category, defaulting", zap.String("title", gig.Title), zap.String("category", DefaultCategory))
	}
	return best
}

// ClassifyBatch returns copies of gigs with Category and Niche set.
func (c *CategoryClassifier) ClassifyBatch(gigs []entity.Gig) []entity.Gig {
	out := make([]entity.Gig, len(gigs))
	for i, g := range gigs {
		cl := c.Classify(g)
		g.Category = cl.Category
		g.Niche = cl.Niche
		out[i] = g
	}
	return out
}

func bestNiche(text string, niches []niche) string {
	name, top := "", 0
	for _, n := range niches {
		if score := countMatches(text, n.keywords); score > top {
			name, top = n.name, score
		}
	}
	return name
}

func countMatches(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}
