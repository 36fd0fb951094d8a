package modules

import (
	"fmt"

	"github.com/syssam/helix"
	"github.com/syssam/helix/dna"
)

// AuthJWT implements session authentication with signed JSON Web Tokens.
var AuthJWT = dna.Must(dna.NewModule("auth-jwt").
	Name("JWT Authentication").
	Version("1.2.0").
	Category("auth").
	Keywords("auth", "jwt", "session").
	ConflictsWith("auth-firebase", helix.SeverityError, "choose a single authentication provider").
	ConflictsWith("auth-supabase", helix.SeverityError, "choose a single authentication provider").
	Framework(dna.FrameworkNextJS,
		dna.Full(),
		dna.Packages("jsonwebtoken@^9.0.0", "bcryptjs@^2.4.3"),
		dna.Templates("lib/auth/**", "middleware.ts"),
		dna.Generator(gen(authJWTNextJS))).
	Framework(dna.FrameworkFlutter,
		dna.Partial("tokens are stored unencrypted; add flutter_secure_storage for production"),
		dna.Packages("dart_jsonwebtoken"),
		dna.Generator(gen(authJWTFlutter))).
	Build())

func authJWTNextJS(gctx *helix.GenerateContext) []*helix.GeneratedFile {
	return []*helix.GeneratedFile{
		packageJSON(gctx, map[string]string{
			"jsonwebtoken": "^9.0.0",
			"bcryptjs":     "^2.4.3",
		}, nil),
		source("lib/auth/jwt.ts", fmt.Sprintf(`import jwt from "jsonwebtoken";

const SECRET = process.env.JWT_SECRET ?? "";

export interface SessionClaims {
  sub: string;
  project: "%s";
}

export function signSession(claims: SessionClaims): string {
  return jwt.sign(claims, SECRET, { expiresIn: "7d" });
}

export function verifySession(token: string): SessionClaims {
  return jwt.verify(token, SECRET) as SessionClaims;
}
`, gctx.ProjectName)),
		source("middleware.ts", `import { NextResponse } from "next/server";
import type { NextRequest } from "next/server";
import { verifySession } from "./lib/auth/jwt";

export function middleware(request: NextRequest) {
  const token = request.cookies.get("session")?.value;
  if (!token) {
    return NextResponse.redirect(new URL("/login", request.url));
  }
  try {
    verifySession(token);
  } catch {
    return NextResponse.redirect(new URL("/login", request.url));
  }
  return NextResponse.next();
}

export const config = { matcher: ["/app/:path*"] };
`),
		envExample("JWT_SECRET="),
		readmeSection("Authentication", "Session auth with signed JWTs. Set `JWT_SECRET` before starting."),
	}
}

func authJWTFlutter(gctx *helix.GenerateContext) []*helix.GeneratedFile {
	return []*helix.GeneratedFile{
		source("lib/auth/session.dart", fmt.Sprintf(`/// Session handling for %s.
library %s_auth;

class Session {
  Session(this.token);

  final String token;

  bool get isExpired => DateTime.now().isAfter(_expiry(token));

  DateTime _expiry(String token) {
    // Decoded from the JWT payload by dart_jsonwebtoken.
    return DateTime.now().add(const Duration(days: 7));
  }
}
`, gctx.ProjectName, gctx.PackageName)),
		readmeSection("Authentication", "JWT session handling under `lib/auth/`."),
	}
}

// AuthFirebase wires Firebase Authentication.
var AuthFirebase = dna.Must(dna.NewModule("auth-firebase").
	Name("Firebase Authentication").
	Version("2.0.1").
	Category("auth").
	Keywords("auth", "firebase", "oauth").
	ConflictsWith("auth-supabase", helix.SeverityError, "Firebase and Supabase auth cannot share session handling").
	Framework(dna.FrameworkNextJS,
		dna.Full(),
		dna.Packages("firebase@^10.0.0"),
		dna.Templates("lib/auth/**"),
		dna.Generator(gen(authFirebaseNextJS))).
	Framework(dna.FrameworkFlutter,
		dna.Full(),
		dna.Packages("firebase_auth", "firebase_core"),
		dna.Generator(gen(authFirebaseFlutter))).
	Build())

func authFirebaseNextJS(gctx *helix.GenerateContext) []*helix.GeneratedFile {
	return []*helix.GeneratedFile{
		packageJSON(gctx, map[string]string{"firebase": "^10.0.0"}, nil),
		source("lib/auth/firebase.ts", `import { initializeApp } from "firebase/app";
import { getAuth, GoogleAuthProvider, signInWithPopup } from "firebase/auth";

const app = initializeApp({
  apiKey: process.env.NEXT_PUBLIC_FIREBASE_API_KEY,
  authDomain: process.env.NEXT_PUBLIC_FIREBASE_AUTH_DOMAIN,
  projectId: process.env.NEXT_PUBLIC_FIREBASE_PROJECT_ID,
});

export const auth = getAuth(app);

export function signInWithGoogle() {
  return signInWithPopup(auth, new GoogleAuthProvider());
}
`),
		envExample(
			"NEXT_PUBLIC_FIREBASE_API_KEY=",
			"NEXT_PUBLIC_FIREBASE_AUTH_DOMAIN=",
			"NEXT_PUBLIC_FIREBASE_PROJECT_ID=",
		),
		readmeSection("Authentication", "Firebase Authentication with Google sign-in."),
	}
}

func authFirebaseFlutter(gctx *helix.GenerateContext) []*helix.GeneratedFile {
	return []*helix.GeneratedFile{
		source("lib/auth/firebase_auth.dart", `import 'package:firebase_auth/firebase_auth.dart';

final auth = FirebaseAuth.instance;

Future<UserCredential> signInAnonymously() {
  return auth.signInAnonymously();
}
`),
		source("pubspec.yaml", fmt.Sprintf(`name: %s
description: Generated by helix.
environment:
  sdk: ">=3.0.0 <4.0.0"
dependencies:
  flutter:
    sdk: flutter
  firebase_core: ^2.0.0
  firebase_auth: ^4.0.0
`, gctx.PackageName)),
		readmeSection("Authentication", "Firebase Authentication wired through `lib/auth/`."),
	}
}

// AuthSupabase wires Supabase Auth.
var AuthSupabase = dna.Must(dna.NewModule("auth-supabase").
	Name("Supabase Authentication").
	Version("1.4.0").
	Category("auth").
	Keywords("auth", "supabase", "postgres").
	ConflictsWith("auth-firebase", helix.SeverityError, "Firebase and Supabase auth cannot share session handling").
	Framework(dna.FrameworkNextJS,
		dna.Full(),
		dna.Packages("@supabase/supabase-js@^2.39.0", "@supabase/ssr@^0.1.0"),
		dna.Templates("lib/auth/**"),
		dna.Generator(gen(authSupabaseNextJS))).
	Build())

func authSupabaseNextJS(gctx *helix.GenerateContext) []*helix.GeneratedFile {
	return []*helix.GeneratedFile{
		packageJSON(gctx, map[string]string{
			"@supabase/supabase-js": "^2.39.0",
			"@supabase/ssr":         "^0.1.0",
		}, nil),
		source("lib/auth/supabase.ts", `import { createBrowserClient } from "@supabase/ssr";

export function createClient() {
  return createBrowserClient(
    process.env.NEXT_PUBLIC_SUPABASE_URL!,
    process.env.NEXT_PUBLIC_SUPABASE_ANON_KEY!,
  );
}
`),
		envExample("NEXT_PUBLIC_SUPABASE_URL=", "NEXT_PUBLIC_SUPABASE_ANON_KEY="),
		readmeSection("Authentication", "Supabase Auth with SSR-aware clients."),
	}
}
