// Package webhook receives push notifications from Git hosting providers and
// decides whether a project's repository mirror needs a sync.
//
// # Providers
//
// The provider is detected from its event header:
//
//	X-GitHub-Event      github     ping, push               X-Hub-Signature-256 / X-Hub-Signature
//	X-Gitlab-Event      gitlab     Push Hook                X-Gitlab-Token
//	X-Event-Key         bitbucket  diagnostics:ping, repo:push  X-Hub-Signature
//	X-Traduttore-Event  generic    ping, push               X-Hub-Signature-256 / X-Hub-Signature
//
// HMAC signatures use the "<algo>=<hex>" form with sha1, sha256 or sha512 and
// are compared in constant time.
//
// # Security Model
//
//   - The project's own webhook secret is used when set, otherwise the
//     configured secret for the provider; without either every delivery fails.
//   - Missing event header, unsupported event, missing signature and bad
//     signature all produce the same 401 body.
//   - 404 for an unknown repository is only returned after the signature
//     verified.
//   - Body size limits are enforced before anything is parsed (413).
//   - Request logging excludes payloads.
//
// # Request Flow
//
//  1. POST arrives at /traduttore/v1/incoming-webhook (any provider) or
//     /github-webhook/v1/push-event (GitHub only)
//  2. Body size checked
//  3. Event type validated; ping answers {"result":"OK"} immediately
//  4. Candidate project looked up from the payload to pick the secret
//  5. Signature verified
//  6. Project resolved, pushed branch compared with the default branch
//  7. Repository metadata stored and a sync scheduled
//  8. {"result":"OK"} returned whatever the sync outcome
//
// # Example Usage
//
//	locator := project.NewLocator(store)
//	d := webhook.NewDispatcher(locator, store, webhook.ConfigSecrets{"github": secret}, scheduler, logger)
//	server := webhook.New(webhook.Config{Listen: "127.0.0.1:8081"}, d, logger)
//	if err := server.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
package webhook
