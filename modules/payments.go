package modules

import (
	"fmt"

	"github.com/syssam/helix"
	"github.com/syssam/helix/dna"
)

// PaymentsStripe wires Stripe checkout and webhooks. It suggests
// auth-jwt so payments can be attached to signed-in users, but runs
// without it.
var PaymentsStripe = dna.Must(dna.NewModule("payments-stripe").
	Name("Stripe Payments").
	Version("1.1.0").
	Category("payments").
	Keywords("payments", "stripe", "checkout").
	DependsOn("auth-jwt", dna.Optional(), dna.Because("attach payments to signed-in users")).
	Framework(dna.FrameworkNextJS,
		dna.Full(),
		dna.Packages("stripe@^14.0.0"),
		dna.Templates("lib/payments/**", "app/api/webhooks/**"),
		dna.Generator(gen(paymentsStripeNextJS))).
	Framework(dna.FrameworkFlutter,
		dna.Partial("mobile checkout opens a hosted payment page; native payment sheets are not generated"),
		dna.Packages("url_launcher"),
		dna.Generator(gen(paymentsStripeFlutter))).
	Build())

func paymentsStripeNextJS(gctx *helix.GenerateContext) []*helix.GeneratedFile {
	files := []*helix.GeneratedFile{
		packageJSON(gctx, map[string]string{"stripe": "^14.0.0"}, nil),
		source("lib/payments/stripe.ts", `import Stripe from "stripe";

export const stripe = new Stripe(process.env.STRIPE_SECRET_KEY ?? "", {
  apiVersion: "2023-10-16",
});

export async function createCheckoutSession(priceId: string, successUrl: string) {
  return stripe.checkout.sessions.create({
    mode: "payment",
    line_items: [{ price: priceId, quantity: 1 }],
    success_url: successUrl,
  });
}
`),
		source("app/api/webhooks/stripe/route.ts", `import { headers } from "next/headers";
import { stripe } from "../../../../lib/payments/stripe";

export async function POST(request: Request) {
  const payload = await request.text();
  const signature = headers().get("stripe-signature") ?? "";
  const event = stripe.webhooks.constructEvent(
    payload,
    signature,
    process.env.STRIPE_WEBHOOK_SECRET ?? "",
  );
  return Response.json({ received: true, type: event.type });
}
`),
		envExample("STRIPE_SECRET_KEY=", "STRIPE_WEBHOOK_SECRET="),
		readmeSection("Payments", "Stripe checkout sessions and a webhook receiver under `app/api/webhooks/stripe`."),
	}
	if gctx.HasModule("auth-jwt") {
		files = append(files, source("lib/payments/customer.ts", `import { verifySession } from "../auth/jwt";
import { stripe } from "./stripe";

export async function customerForSession(token: string) {
  const claims = verifySession(token);
  const customers = await stripe.customers.search({
    query: "metadata['userId']:'" + claims.sub + "'",
  });
  return customers.data[0];
}
`))
	}
	return files
}

func paymentsStripeFlutter(gctx *helix.GenerateContext) []*helix.GeneratedFile {
	return []*helix.GeneratedFile{
		source("lib/payments/checkout.dart", fmt.Sprintf(`import 'package:url_launcher/url_launcher.dart';

/// Opens the hosted checkout page for %s.
Future<bool> openCheckout(Uri checkoutUrl) {
  return launchUrl(checkoutUrl, mode: LaunchMode.externalApplication);
}
`, gctx.ProjectName)),
		readmeSection("Payments", "Hosted Stripe checkout opened through `url_launcher`."),
	}
}
