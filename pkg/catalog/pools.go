package catalog

// Category is the top level classification of an image, taken from its first directory.
type Category string

const (
	Photography Category = "photography"
	Design      Category = "design"
	Other       Category = "other"
)

// ParseCategory maps a path segment onto the allow-list; anything else is Other.
func ParseCategory(s string) Category {
	switch Category(s) {
	case Photography:
		return Photography
	case Design:
		return Design
	}
	return Other
}

// Known subcategories.
const (
	Landscape    = "landscape"
	Portrait     = "portrait"
	Architecture = "architecture"
	Branding     = "branding"
	UI           = "ui"
)

// Scaffold is created when the catalog root does not exist yet.
var Scaffold = []string{
	"photography/" + Landscape,
	"photography/" + Portrait,
	"photography/" + Architecture,
	"design/" + Branding,
	"design/" + UI,
}

// StudioLocation is the location of every non-photography image.
const StudioLocation = "工作室项目"

// profile is the set of pools used for one (category, subcategory) pair.
type profile struct {
	descriptions []string
	// tags are always applied; extra are sampled.
	tags      []string
	extra     []string
	locations []string
	cameras   []string
	lenses    []string
}

type key struct {
	cat Category
	sub string
}

var baseTags = map[Category]string{
	Photography: "摄影",
	Design:      "设计",
	Other:       "设计",
}

var profiles = map[key]profile{
	{Photography, Landscape}: {
		descriptions: []string{
			"在壮丽的自然风景中捕捉到的一瞬间，展现了大自然的无限魅力。",
			"这张照片展示了令人惊叹的自然景观，让人感受到大自然的宏伟与和谐。",
			"在探索自然的过程中拍摄的这张照片，记录了地球上的无尽美景。",
		},
		tags:      []string{"风景", "自然", "户外"},
		extra:     []string{"山脉", "海洋", "湖泊", "森林", "日落", "日出", "云彩"},
		locations: []string{"云南大理", "新疆喀纳斯", "西藏纳木错", "四川九寨沟", "青海湖", "张家界"},
		cameras:   []string{"Canon EOS 5D Mark IV", "Nikon Z7 II", "Sony A7R IV"},
		lenses:    []string{"Canon RF 15-35mm f/2.8L", "Nikon Z 14-30mm f/4 S", "Sony FE 16-35mm f/2.8 GM"},
	},
	{Photography, Portrait}: {
		descriptions: []string{
			"这张人像作品捕捉到了真实的情感和个性，展现了人物内在的精神世界。",
			"通过精心构图和光线处理，这张人像呈现出独特的氛围和情感。",
			"在自然光线下拍摄的人像，展现了模特的自然魅力和真实表情。",
		},
		tags:      []string{"人像", "模特"},
		extra:     []string{"表情", "情绪", "黑白", "色彩", "光影", "故事性"},
		locations: []string{"工作室", "城市街头", "公园", "海滩", "田野", "咖啡馆"},
		cameras:   []string{"Canon EOS R6", "Sony A7 IV", "Nikon Z6 II"},
		lenses:    []string{"Canon RF 85mm f/1.2L", "Nikon Z 85mm f/1.8 S", "Sony FE 85mm f/1.4 GM"},
	},
	{Photography, Architecture}: {
		descriptions: []string{
			"这张建筑摄影作品展示了线条、几何形状和光影的完美结合。",
			"通过独特的视角捕捉到的建筑细节，展现了现代建筑的艺术感和质感。",
			"这张照片记录了独特的建筑风格和设计理念，展现了城市的建筑美学。",
		},
		tags:      []string{"建筑", "结构"},
		extra:     []string{"城市", "几何", "线条", "现代", "古典", "对称", "视角"},
		locations: []string{"北京三里屯", "上海外滩", "深圳平安大厦", "广州塔", "杭州西湖", "重庆洪崖洞"},
		cameras:   []string{"Canon EOS R5", "Nikon D850", "Sony A7R III"},
		lenses:    []string{"Canon TS-E 24mm f/3.5L II", "Nikon PC-E 19mm f/4E ED", "Sony FE 12-24mm f/2.8 GM"},
	},
	{Design, Branding}: {
		descriptions: []string{
			"为客户创建的品牌标识设计，注重简洁性和可识别性，完美传达品牌理念。",
			"这个品牌设计项目包括了标志、色彩系统和字体选择，形成了一致的品牌形象。",
			"通过深入了解客户需求后创作的品牌设计，兼具美感和实用性。",
		},
		tags:  []string{"品牌", "标志"},
		extra: []string{"标识", "企业形象", "视觉识别", "现代", "极简", "创意"},
	},
	{Design, UI}: {
		descriptions: []string{
			"这个用户界面设计专注于用户体验和交互设计，确保直观易用的操作流程。",
			"为移动应用创建的用户界面，注重视觉层次和信息架构，提供流畅的用户体验。",
			"这套界面设计基于用户研究和行业最佳实践，平衡了美学和功能性。",
		},
		tags:  []string{"界面", "UI", "UX"},
		extra: []string{"应用", "网页", "交互", "用户体验", "响应式", "原型", "布局"},
	},
}

var (
	genericPhotoTags  = []string{"构图", "光线", "情感", "瞬间", "视觉", "艺术", "创意"}
	genericDesignTags = []string{"创意", "视觉", "排版", "色彩", "构成", "概念", "美学"}
)

// Exposure pools shared by every photography subcategory.
var (
	apertures = []string{"f/2.8", "f/4.0", "f/5.6", "f/8.0", "f/11.0", "f/16.0"}
	shutters  = []string{"1/60s", "1/125s", "1/250s", "1/500s", "1/1000s"}
	isos      = []string{"100", "200", "400", "800"}
	focals    = []string{"16mm", "24mm", "35mm", "50mm", "85mm", "135mm"}
)

var photoSubs = []string{Landscape, Portrait, Architecture}

// union concatenates one field across every photography profile.
func union(field func(profile) []string) []string {
	out := []string{}
	for _, s := range photoSubs {
		out = append(out, field(profiles[key{Photography, s}])...)
	}
	return out
}

// lookup returns the pools for a category and subcategory, falling back to
// the category default when the subcategory is not recognized.
func lookup(cat Category, sub string) profile {
	if cat != Photography {
		cat = Design
	}
	if p, ok := profiles[key{cat, sub}]; ok {
		return p
	}

	if cat == Photography {
		return profile{
			descriptions: profiles[key{Photography, Landscape}].descriptions,
			extra:        genericPhotoTags,
			locations:    union(func(p profile) []string { return p.locations }),
			cameras:      union(func(p profile) []string { return p.cameras }),
			lenses:       union(func(p profile) []string { return p.lenses }),
		}
	}
	return profile{
		descriptions: profiles[key{Design, Branding}].descriptions,
		extra:        genericDesignTags,
	}
}
