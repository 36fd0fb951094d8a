package modules

import (
	"github.com/syssam/helix"
	"github.com/syssam/helix/dna"
)

// AnalyticsPosthog wires product analytics through PostHog. It clashes
// softly with privacy-strict: both can be composed, but the pairing is
// surfaced as a warning.
var AnalyticsPosthog = dna.Must(dna.NewModule("analytics-posthog").
	Name("PostHog Analytics").
	Version("1.0.0").
	Category("analytics").
	Keywords("analytics", "posthog", "telemetry").
	ConflictsWith("privacy-strict", helix.SeverityWarning,
		"review the tracking plan; strict privacy mode disables most capture calls").
	Framework(dna.FrameworkNextJS,
		dna.Full(),
		dna.Packages("posthog-js@^1.100.0"),
		dna.Templates("lib/analytics/**"),
		dna.Generator(gen(analyticsPosthogNextJS))).
	Build())

func analyticsPosthogNextJS(gctx *helix.GenerateContext) []*helix.GeneratedFile {
	return []*helix.GeneratedFile{
		packageJSON(gctx, map[string]string{"posthog-js": "^1.100.0"}, nil),
		source("lib/analytics/posthog.ts", `import posthog from "posthog-js";

export function initAnalytics() {
  if (typeof window === "undefined") return;
  posthog.init(process.env.NEXT_PUBLIC_POSTHOG_KEY ?? "", {
    api_host: "https://app.posthog.com",
    capture_pageview: true,
  });
}

export { posthog };
`),
		envExample("NEXT_PUBLIC_POSTHOG_KEY="),
		readmeSection("Analytics", "PostHog is initialized client-side in `lib/analytics/posthog.ts`."),
	}
}

// PrivacyStrict turns off third-party data flows: a restrictive consent
// default and a hardened permissions policy.
var PrivacyStrict = dna.Must(dna.NewModule("privacy-strict").
	Name("Strict Privacy Defaults").
	Version("1.0.0").
	Category("privacy").
	Keywords("privacy", "gdpr", "consent").
	ConflictsWith("analytics-posthog", helix.SeverityWarning,
		"analytics capture should be gated behind consent in strict privacy mode").
	Framework(dna.FrameworkNextJS,
		dna.Full(),
		dna.Templates("lib/privacy/**"),
		dna.Generator(gen(privacyStrictNextJS))).
	Build())

func privacyStrictNextJS(gctx *helix.GenerateContext) []*helix.GeneratedFile {
	files := []*helix.GeneratedFile{
		source("lib/privacy/consent.ts", `export type ConsentCategory = "essential" | "analytics" | "marketing";

const granted = new Set<ConsentCategory>(["essential"]);

export function hasConsent(category: ConsentCategory): boolean {
  return granted.has(category);
}

export function grantConsent(category: ConsentCategory): void {
  granted.add(category);
}
`),
		readmeSection("Privacy", "Strict defaults: only essential data flows are enabled until consent is granted."),
	}
	if gctx.HasModule("analytics-posthog") {
		files = append(files, source("lib/privacy/analytics-gate.ts", `import { hasConsent } from "./consent";
import { posthog } from "../analytics/posthog";

export function capture(event: string, properties?: Record<string, unknown>) {
  if (!hasConsent("analytics")) return;
  posthog.capture(event, properties);
}
`))
	}
	return files
}
