package modules

import (
	"fmt"

	"github.com/syssam/helix"
	"github.com/syssam/helix/dna"
)

// UITailwind sets up Tailwind CSS with a minimal base stylesheet.
var UITailwind = dna.Must(dna.NewModule("ui-tailwind").
	Name("Tailwind CSS").
	Version("2.1.0").
	Category("ui").
	Keywords("ui", "css", "tailwind").
	Framework(dna.FrameworkNextJS,
		dna.Full(),
		dna.DevPackages("tailwindcss@^3.4.0", "postcss@^8.4.0", "autoprefixer@^10.4.0"),
		dna.Templates("tailwind.config.ts", "app/globals.css"),
		dna.Generator(gen(uiTailwindNextJS))).
	Framework(dna.FrameworkReact,
		dna.Full(),
		dna.DevPackages("tailwindcss@^3.4.0", "postcss@^8.4.0", "autoprefixer@^10.4.0"),
		dna.Templates("tailwind.config.ts", "src/index.css"),
		dna.Generator(gen(uiTailwindReact))).
	Build())

func uiTailwindNextJS(gctx *helix.GenerateContext) []*helix.GeneratedFile {
	return []*helix.GeneratedFile{
		packageJSON(gctx, nil, map[string]string{
			"tailwindcss":  "^3.4.0",
			"postcss":      "^8.4.0",
			"autoprefixer": "^10.4.0",
		}),
		tailwindConfig("./app/**/*.{ts,tsx}"),
		source("postcss.config.js", postcssConfig),
		source("app/globals.css", tailwindBaseCSS(gctx)),
		readmeSection("Styling", "Tailwind CSS is preconfigured; edit `tailwind.config.ts` to extend the theme."),
	}
}

func uiTailwindReact(gctx *helix.GenerateContext) []*helix.GeneratedFile {
	return []*helix.GeneratedFile{
		packageJSON(gctx, nil, map[string]string{
			"tailwindcss":  "^3.4.0",
			"postcss":      "^8.4.0",
			"autoprefixer": "^10.4.0",
		}),
		tailwindConfig("./src/**/*.{ts,tsx}"),
		source("postcss.config.js", postcssConfig),
		source("src/index.css", tailwindBaseCSS(gctx)),
		readmeSection("Styling", "Tailwind CSS is preconfigured; edit `tailwind.config.ts` to extend the theme."),
	}
}

const postcssConfig = `module.exports = {
  plugins: {
    tailwindcss: {},
    autoprefixer: {},
  },
};
`

func tailwindConfig(content string) *helix.GeneratedFile {
	return source("tailwind.config.ts", fmt.Sprintf(`import type { Config } from "tailwindcss";

const config: Config = {
  content: [%q],
  theme: {
    extend: {},
  },
  plugins: [],
};

export default config;
`, content))
}

func tailwindBaseCSS(gctx *helix.GenerateContext) string {
	return fmt.Sprintf(`/* %s base styles */
@tailwind base;
@tailwind components;
@tailwind utilities;
`, gctx.ProjectName)
}
