package apple

import (
	"fmt"
	"strconv"

	"github.com/router-for-me/AppleWebAuth/internal/constant"
)

// formCollectorTemplate walks every form of the page, serializes the named
// elements as name<kv>value<field> and pushes one string per form to the bridge.
const formCollectorTemplate = `function parseForm(form) {
    var values = '';
    for (var i = 0; i < form.elements.length; i++) {
        var element = form.elements[i];
        if (!element.name) {
            continue;
        }
        values += element.name + %[1]s + element.value + %[2]s;
    }
    window.%[3]s.%[4]s(values);
}

for (var i = 0; i < document.forms.length; i++) {
    parseForm(document.forms[i]);
}`

// FormCollectorScript is the script injected into the intercepted page.
var FormCollectorScript = BuildFormCollectorScript(constant.BridgeName, constant.BridgeMethod)

// BuildFormCollectorScript renders the form collector for a bridge name and method.
func BuildFormCollectorScript(bridgeName, method string) string {
	return fmt.Sprintf(formCollectorTemplate,
		strconv.Quote(constant.KeyValueSeparator),
		strconv.Quote(constant.FormDataSeparator),
		bridgeName,
		method,
	)
}

// WrapScript wraps a script body in an anonymous function so its variables
// stay out of the page's global scope.
func WrapScript(body string) string {
	return "(function() { " + body + " })()"
}
