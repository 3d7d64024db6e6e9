package common

// AuthorizationHeaderName carries the bearer access token on inbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the only accepted authorization scheme.
const BearerScheme = "Bearer"

// ResetTokenSize is the number of random bytes in a password-reset token.
// The hex form is twice as long.
const ResetTokenSize = 32

// GenericResetMessage is returned by forgot-password regardless of whether
// the email is registered.
const GenericResetMessage = "If the account exists, password reset instructions have been sent."

// PasswordResetDoneMessage is returned after a successful password reset.
const PasswordResetDoneMessage = "Password has been reset."
