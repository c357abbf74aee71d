package cache

// SetIfNewerScriptHash is the EVALSHA digest redismock expectations are keyed on.
var SetIfNewerScriptHash = setIfNewerScript.Hash()
