package usuario

// MakeToken exposes the password reset token generation to the tests.
var MakeToken = makeToken
