/*
Package authsdk is the client SDK and shared wire types for the keystone
authentication service.

Every /v1 request carries the calling application's API key:

	X-API-Key: <key>:<hex(sha256(key + ":" + secret))>

SDKClient computes that header from the key and secret it was built with.

# Logging in

	client := authsdk.NewSDKClient("https://auth.example.com", key, secret)

	tokens, err := client.Login(ctx, authsdk.LoginRequest{
		Email:    "alice@example.com",
		Password: "hunter22",
	})
	if err != nil {
		var apiErr *authsdk.Error
		if errors.As(err, &apiErr) && apiErr.Code == authsdk.ErrorCodeAccountInactive {
			// ...
		}
		return err
	}
	if tokens.PasswordExpired() {
		// Tokens were issued but the user must change their password.
	}

# Sessions

A Session holds an access/refresh pair. When a call fails with
token_expired it refreshes once and replays the call. Refreshing never
extends the session past the expiry fixed at login, after which the user
has to log in again.

	session, err := client.AuthenticateWithPassword(ctx, email, password, true)
	profile, err := session.Me(ctx)
	creds, err := session.CreateAPIKey(ctx, authsdk.CreateAPIKeyRequest{Name: "billing"})

# Errors

Failures are returned as *Error carrying the HTTP status and the stable
code from the "error" field. The predefined values (ErrPasswordMismatch,
ErrTokenExpired, ...) match with errors.Is by code.
*/
package authsdk
